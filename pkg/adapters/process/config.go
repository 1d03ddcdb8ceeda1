package process

// Config describes the external command that receives finalized wizard
// settings.
type Config struct {
	Command     string            `mapstructure:"command" yaml:"command" json:"command"`
	Args        []string          `mapstructure:"args" yaml:"args" json:"args"`
	Environment map[string]string `mapstructure:"env" yaml:"env" json:"env"`
	Dir         string            `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// Enabled reports whether a command is configured.
func (c Config) Enabled() bool {
	return c.Command != ""
}
