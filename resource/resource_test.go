package resource

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/nautilus/attr"
)

func lookup(kvs []attr.KeyValue, key string) (string, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value.AsString(), true
		}
	}
	return "", false
}

func TestDefaultDescribesProcess(t *testing.T) {
	a := Default()
	assert.Equal(t, runtime.GOOS, a.OSType)
	assert.Equal(t, runtime.GOARCH, a.DeviceModel)
	assert.NotEmpty(t, a.ServiceName)
	assert.NotEmpty(t, a.OSVersion)
	assert.NotEmpty(t, a.HostName)
}

func TestKeyValuesUseSemanticConventions(t *testing.T) {
	a := Attributes{ServiceName: "com.example.app", ServiceVersion: "2.3"}
	kvs := a.KeyValues()

	v, ok := lookup(kvs, "service.name")
	require.True(t, ok)
	assert.Equal(t, "com.example.app", v)

	v, _ = lookup(kvs, "service.version")
	assert.Equal(t, "2.3", v)

	v, _ = lookup(kvs, "telemetry.sdk.language")
	assert.Equal(t, "go", v)

	v, _ = lookup(kvs, "os.version")
	assert.Equal(t, "unknown", v)

	for i := 1; i < len(kvs); i++ {
		assert.Less(t, kvs[i-1].Key, kvs[i].Key)
	}
}

func TestAdditionalAttributesNeverOverwrite(t *testing.T) {
	a := Attributes{ServiceName: "real"}.With(
		attr.String("service.name", "fake"),
		attr.String("deployment.environment", "staging"),
		attr.String("deployment.environment", "prod"),
	)
	kvs := a.KeyValues()

	v, _ := lookup(kvs, "service.name")
	assert.Equal(t, "real", v)

	v, ok := lookup(kvs, "deployment.environment")
	require.True(t, ok)
	assert.Equal(t, "staging", v)

	count := 0
	for _, kv := range kvs {
		if kv.Key == "deployment.environment" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWithDoesNotAlias(t *testing.T) {
	base := Default(attr.String("a", "1"))
	_ = base.With(attr.String("b", "2"))
	assert.Len(t, base.Additional, 1)
}
