package host

// Option defines a functional option for configuring a TopLevel or Embedded host.
type Option func(*config)

type config struct {
	resolver Resolver
	name     string
}

// WithResolver sets where OnCapabilityResult forwards prompt outcomes.
func WithResolver(r Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}

// WithName labels the host in logs.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}
