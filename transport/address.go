// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"fmt"
	"net"
)

// Address is a (host, port) pair, resolved lazily at connect/listen time —
// there is no hidden DNS-caching layer, matching address.unpack() being
// called fresh on every connect()/listen() in the reference implementation.
type Address struct {
	Host string
	Port uint16
}

// Unpack resolves Address to a dialable/bindable IPv4 endpoint.
func (a Address) Unpack() (net.IP, uint16, error) {
	ips, err := net.LookupIP(a.Host)
	if err != nil {
		return nil, 0, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, a.Port, nil
		}
	}
	return nil, 0, fmt.Errorf("transport: no IPv4 address found for %q", a.Host)
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
