package cmd

// LogConfig holds the logging flags shared by every command.
type LogConfig struct {
	Level string `help:"Log level (trace|debug|info|warn|error)" default:"info" env:"GTLINK_LOG_LEVEL"`
	File  string `help:"Also write logs to this file" env:"GTLINK_LOG_FILE"`
}

// CLI is the root command tree parsed by Kong.
type CLI struct {
	Log    LogConfig `embed:"" prefix:"log."`
	Config string    `help:"Path to a config file (json/yaml/toml)" env:"GTLINK_CONFIG"`

	Monitor Monitor       `cmd:"" help:"Receive telemetry from a console and print it"`
	Drive   Drive         `cmd:"" help:"Map keyboard input to a virtual DualShock 4"`
	Cfg     ConfigCommand `cmd:"" name:"config" help:"Configuration file helpers"`
}
