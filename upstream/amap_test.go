package upstream

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmapLookup(t *testing.T) {
	server := newStub(t, http.StatusOK, `{
		"status": "1",
		"info": "OK",
		"infocode": "10000",
		"province": "广东省",
		"city": "深圳市",
		"adcode": "440300",
		"rectangle": "113.67,22.37;114.55,22.92"
	}`)

	provider := NewAmap(server.Client())
	provider.EndpointURL = server.URL

	location, err := provider.Lookup(context.Background(), Query{IP: "114.247.50.2"}, "test-key")

	require.NoError(t, err)
	assert.Equal(t, "广东省", location.Province)
	assert.Equal(t, "深圳市", location.City)
	assert.Equal(t, "440300", location.Adcode)
	assert.Equal(t, "113.67,22.37;114.55,22.92", location.Rectangle)
}

func TestAmapEmptyArrayFields(t *testing.T) {
	// Non-mainland IPs come back with [] instead of empty strings.
	server := newStub(t, http.StatusOK, `{
		"status": "1",
		"info": "OK",
		"infocode": "10000",
		"province": [],
		"city": [],
		"adcode": [],
		"rectangle": []
	}`)

	provider := NewAmap(server.Client())
	provider.EndpointURL = server.URL

	location, err := provider.Lookup(context.Background(), Query{IP: "8.8.8.8"}, "test-key")

	require.NoError(t, err)
	assert.Empty(t, location.Province)
	assert.Empty(t, location.City)
}

func TestAmapCredentialInfocodes(t *testing.T) {
	for _, infocode := range []string{"10001", "10003", "10009", "10013"} {
		server := newStub(t, http.StatusOK, `{"status": "0", "info": "INVALID_USER_KEY", "infocode": "`+infocode+`"}`)

		provider := NewAmap(server.Client())
		provider.EndpointURL = server.URL

		_, err := provider.Lookup(context.Background(), Query{IP: "1.2.3.4"}, "bad-key")

		require.Error(t, err)
		assert.Equal(t, ReasonCredentialInvalid, ReasonOf(err))
	}
}

func TestAmapOtherFailuresAreMalformed(t *testing.T) {
	server := newStub(t, http.StatusOK, `{"status": "0", "info": "UNKNOWN_ERROR", "infocode": "20003"}`)

	provider := NewAmap(server.Client())
	provider.EndpointURL = server.URL

	_, err := provider.Lookup(context.Background(), Query{IP: "1.2.3.4"}, "test-key")

	require.Error(t, err)
	assert.Equal(t, ReasonMalformedResponse, ReasonOf(err))
}

func TestAmapMissingCredential(t *testing.T) {
	provider := NewAmap(http.DefaultClient)

	_, err := provider.Lookup(context.Background(), Query{IP: "1.2.3.4"}, "")

	require.Error(t, err)
	assert.Equal(t, ReasonCredentialMissing, ReasonOf(err))
}
