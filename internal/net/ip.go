package net

import (
	"log/slog"
	"net"
)

// GetOutgoingIP finds the preferred local IP address to show in share links.
func GetOutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return localIPFallback()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

// localIPFallback is used on networks without internet access.
func localIPFallback() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	slog.Warn("no suitable local IP found, falling back to loopback")
	return "127.0.0.1"
}

// PortOf extracts the numeric port of a listen address such as ":8888".
func PortOf(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return net.LookupPort("tcp", port)
}
