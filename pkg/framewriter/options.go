package framewriter

type Option = func(*Config) error

func WithInputFormat(format InputFormat) Option {
	return func(config *Config) error {
		config.InputFormat = format
		return nil
	}
}

func WithCodec(name string) Option {
	return func(config *Config) error {
		config.Codec = name
		return nil
	}
}

func WithHardwareDevice(device string) Option {
	return func(config *Config) error {
		config.HardwareDevice = device
		return nil
	}
}

func WithCodecOption(key, value string) Option {
	return func(config *Config) error {
		if config.CodecOptions == nil {
			config.CodecOptions = make(map[string]string)
		}
		config.CodecOptions[key] = value
		return nil
	}
}

func WithDebugLogging() Option {
	return func(config *Config) error {
		config.DebugLogging = true
		return nil
	}
}
