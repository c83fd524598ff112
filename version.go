package stockease

// Version is the current SDK version
const Version = "0.1.0"
