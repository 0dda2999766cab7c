package domain

// KeyPrefix namespaces every Redis key the service writes.
// Overridden at startup from storage config.
var KeyPrefix = "spotlight:"
