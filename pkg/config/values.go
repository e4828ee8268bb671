package config

// Values is a flat key/value document, the format of the file config
// center.
type Values map[string]string
