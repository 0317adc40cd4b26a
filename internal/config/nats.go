package config

import (
	"strings"

	"github.com/nats-io/nats.go"
)

// URL returns the comma-joined server list in the form nats.Connect expects.
func (n *NatsConfig) URL() string {
	return strings.Join(n.Servers, ",")
}

// ClientOptions translates the transport section into nats.go connection
// options for the external transport layer. No connection is made here; the
// configuration core only prepares the material.
func (n *NatsConfig) ClientOptions(brokerID string) []nats.Option {
	opts := []nats.Option{
		nats.Name(brokerID),
		nats.Timeout(n.ConnectTimeout),
		nats.ReconnectWait(n.ReconnectDelay),
	}

	if n.MaxReconnects > 0 {
		opts = append(opts, nats.MaxReconnects(n.MaxReconnects))
	} else {
		// 0 in the schema means reconnect forever.
		opts = append(opts, nats.MaxReconnects(-1))
	}

	switch {
	case n.Token != "":
		opts = append(opts, nats.Token(n.Token))
	case n.Username != "":
		opts = append(opts, nats.UserInfo(n.Username, n.Password))
	}

	if n.TLSCert != "" && n.TLSKey != "" {
		opts = append(opts, nats.ClientCert(n.TLSCert, n.TLSKey))
	}
	if n.TLSCA != "" {
		opts = append(opts, nats.RootCAs(n.TLSCA))
	}

	return opts
}
