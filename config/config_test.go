package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		want    *Config
		err     bool
	}{
		{
			caption: "an empty file yields the default values",
			src:     ``,
			want:    Default(),
		},
		{
			caption: "all keys",
			src: `
warnings_are_errors = true
message_format = "gnu"
long_messages = true
log_level = "debug"
check_assoc_options = false
output_dir = "out"
lib_dir = "lib"

[defines]
tokenVocab = "L"
`,
			want: &Config{
				WarningsAreErrors: true,
				MessageFormat:     "gnu",
				LongMessages:      true,
				LogLevel:          "debug",
				CheckAssocOptions: false,
				OutputDir:         "out",
				LibDir:            "lib",
				Defines:           map[string]string{"tokenVocab": "L"},
			},
		},
		{
			caption: "an unknown message format is rejected",
			src:     `message_format = "json"`,
			err:     true,
		},
		{
			caption: "an unknown log level is rejected",
			src:     `log_level = "trace"`,
			err:     true,
		},
		{
			caption: "malformed TOML is rejected",
			src:     `message_format = `,
			err:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			c, err := Parse([]byte(tt.src))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestConfig_SetDefine(t *testing.T) {
	c := Default()
	require.NoError(t, c.SetDefine("language = Go"))
	assert.Equal(t, "Go", c.Defines["language"])
	assert.Error(t, c.SetDefine("=x"))
	assert.Error(t, c.SetDefine("novalue"))
}
