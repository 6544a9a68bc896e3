package client

// BaseURLFunc resolves the relay server URL at command run time, so env
// overrides are read after flag parsing.
type BaseURLFunc func() string
