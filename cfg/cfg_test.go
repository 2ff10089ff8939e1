// SPDX-License-Identifier: ice License 1.0

package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMustGetResolvesKeyFromPackagePath(t *testing.T) {
	t.Parallel()
	type testCfg struct{ A string }
	require.Equal(t, "b", MustGet[testCfg]().A)
}

func TestMustGetKeyDecodesNestedSections(t *testing.T) {
	t.Parallel()
	type relayCfg struct {
		Relay struct {
			Port  uint16 `yaml:"port"`
			Debug bool   `yaml:"debug"`
		} `yaml:"relay"`
	}
	loaded := MustGetKey[relayCfg]("cmd/bloodconnect")
	require.Equal(t, uint16(9890), loaded.Relay.Port)
	require.True(t, loaded.Relay.Debug)
}
