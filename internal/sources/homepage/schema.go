package homepage

// ServicesConfig is the top-level structure of a Homepage services.yaml.
// Groups and services use dynamic keys, so it parses as
// []map[group][]map[service]ServiceProps.
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps holds the fields of one service that map onto a link.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
