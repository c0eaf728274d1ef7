package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextBuilder_Build(t *testing.T) {
	b := ContextBuilder{AdminCredential: DefaultAdminCredential}

	cases := map[string]struct {
		headers map[string]string
		want    string
	}{
		"exact credential": {headers: map[string]string{"Authorization": "Bearer 123"}, want: UsernameAdmin},
		"lowercase key":    {headers: map[string]string{"authorization": "Bearer 123"}, want: UsernameAdmin},
		"other credential": {headers: map[string]string{"Authorization": "Bearer 124"}, want: UsernameGuest},
		"empty credential": {headers: map[string]string{"Authorization": ""}, want: UsernameGuest},
		"absent header":    {headers: map[string]string{"X-Other": "Bearer 123"}, want: UsernameGuest},
		"nil headers":      {headers: nil, want: UsernameGuest},
		"trailing space":   {headers: map[string]string{"Authorization": "Bearer 123 "}, want: UsernameGuest},
		"different casing": {headers: map[string]string{"Authorization": "bearer 123"}, want: UsernameGuest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, CallContext{Username: tc.want}, b.Build(tc.headers))
		})
	}
}

func TestContextBuilder_NoCredentialConfigured(t *testing.T) {
	var b ContextBuilder
	assert.Equal(t, UsernameGuest, b.Build(map[string]string{"Authorization": ""}).Username)
}
