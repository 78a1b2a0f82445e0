package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// DeviceInfo summarizes the caller's client software for audit events.
type DeviceInfo struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// String renders the info compactly for audit fields.
func (d DeviceInfo) String() string {
	s := d.Browser + " on " + d.OS
	if d.Mobile {
		s += " (mobile)"
	}
	if d.Bot {
		s += " (bot)"
	}
	return s
}

type deviceInfoKey struct{}

// Device parses the User-Agent header and stores a DeviceInfo in the context.
// Claims submitted by bots are still processed; the flag just lands in the
// audit trail for later abuse analysis.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.Header.Get("User-Agent"))
		name, version := ua.Browser()

		info := DeviceInfo{
			Browser: name + " " + version,
			OS:      ua.OS(),
			Mobile:  ua.Mobile(),
			Bot:     ua.Bot(),
		}
		ctx := context.WithValue(r.Context(), deviceInfoKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice retrieves the parsed device info from the context.
func GetDevice(ctx context.Context) DeviceInfo {
	if d, ok := ctx.Value(deviceInfoKey{}).(DeviceInfo); ok {
		return d
	}
	return DeviceInfo{}
}
