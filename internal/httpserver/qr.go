package httpserver

import (
	"errors"
	"net"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

// handleQR serves a PNG QR code pointing at the listing, so phones on the
// same LAN can jump straight in without typing an address.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(s.shareURL(r), qrcode.Medium, 256)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// shareURL prefers the host's LAN IPv4 over whatever Host header the
// request carried, since the QR code is usually scanned from a different
// device than the one browsing.
func (s *Server) shareURL(r *http.Request) string {
	host := r.Host
	if ip, err := localIPv4(); err == nil {
		port := listenPort(s.cfg.Addr)
		if port != "" {
			host = net.JoinHostPort(ip, port)
		} else {
			host = ip
		}
	}
	return "http://" + host + "/files/"
}

func listenPort(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return port
}

// localIPv4 picks a private (RFC 1918) IPv4 address of an up interface,
// skipping loopback and link-local. Falls back to any global unicast v4.
func localIPv4() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	var fallback string
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipn.IP.To4()
		if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
			continue
		}
		if ip4.IsPrivate() {
			return ip4.String(), nil
		}
		if fallback == "" && ip4.IsGlobalUnicast() {
			fallback = ip4.String()
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.New("no usable IPv4 address")
}
