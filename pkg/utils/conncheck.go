package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
)

var (
	dbURLRegex   = regexp.MustCompile(`^postgres(?:ql)?://(?:.*@)?(?P<host>[^:/?]+)(?::(?P<port>\d+))?`)
	natsURLRegex = regexp.MustCompile(`^(?:nats|tls)://(?:.*@)?(?P<host>[^:/?,]+)(?::(?P<port>\d+))?`)
)

// WaitForTCP dials addr until it succeeds, the timeout is reached or ctx is done.
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.Since("duration", start))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", addr, timeout)
		case <-ticker.C:
		}
	}
}

// ExtractFromDBURL returns host:port of a postgres connection url.
// The port defaults to 5432, an unparsable url yields "".
func ExtractFromDBURL(url string) string {
	return extractAddr(dbURLRegex, url, "5432")
}

// ExtractFromNatsURL returns host:port of the first server of a nats url.
func ExtractFromNatsURL(url string) string {
	return extractAddr(natsURLRegex, url, "4222")
}

func extractAddr(re *regexp.Regexp, url, defaultPort string) string {
	param := resolveRegex(re, url)
	host := param["host"]
	if host == "" {
		return ""
	}
	port := param["port"]
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(host, port)
}

func resolveRegex(re *regexp.Regexp, url string) (paramsMap map[string]string) {
	match := re.FindStringSubmatch(url)
	paramsMap = make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i > 0 && i < len(match) {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
