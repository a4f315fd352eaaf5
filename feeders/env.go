package feeders

import "github.com/golobby/config/v3/pkg/feeder"

// EnvFeeder is a feeder that reads environment variables named by the env
// struct tag, without prefix.
type EnvFeeder = feeder.Env
