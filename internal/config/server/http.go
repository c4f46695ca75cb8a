package server

type HTTPServerConfig struct {
	Address string `mapstructure:"address"  yaml:"address"`
	// BaseURL is prepended to the upload paths returned by the API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// MaxUploadSize is the multipart body limit in megabytes.
	MaxUploadSize int64 `mapstructure:"max_upload_size" yaml:"max_upload_size"`

	CORS CORSServerConfig `mapstructure:"cors" yaml:"cors"`
}

// CORSServerConfig enables cross-origin requests. An empty origin list
// disables the middleware, "*" allows every origin.
type CORSServerConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxAge         string   `mapstructure:"max_age"         yaml:"max_age"`
}

type UploadsServerConfig struct {
	Path      string `mapstructure:"path"      yaml:"path"`
	Overwrite bool   `mapstructure:"overwrite" yaml:"overwrite"`
}
