package main

// Version is the application version, shown in the window title and
// reported to the frontend via GetVersion.
const Version = "1.0.0"
