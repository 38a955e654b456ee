// Command pulse tails a dashboard event stream from the terminal. It is
// mainly a debugging aid: it shows reconnects, fallback transitions, and
// every envelope the transport delivers.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"verigate.github.io/pulse"
	"verigate.github.io/pulse/envelope"
	"verigate.github.io/pulse/socket"
	"verigate.github.io/pulse/xlog"
)

func main() {
	path := flag.String("config", "pulse.config.yaml", "path to the config file")
	flag.Parse()
	conf, err := readConfig(*path)
	if err != nil {
		xlog.Error("read config", xlog.Err(err))
		os.Exit(1)
	}
	if conf.LogFormat == "json" {
		xlog.SetDefault(xlog.NewJSON(conf.Level()))
	} else {
		xlog.SetDefault(xlog.NewText(conf.Level()))
	}

	cfg := pulse.Config{
		BaseURL: conf.BaseURL,
		Headers: func() http.Header {
			if conf.APIKey == "" {
				return nil
			}
			return http.Header{"X-Api-Key": []string{conf.APIKey}}
		},
		Unauthorized: func() {
			xlog.Error("credential rejected, update apiKey in the config")
		},
	}

	var s *socket.Socket
	switch conf.Stream.Kind {
	case "activation":
		s = pulse.NewActivationSocket(cfg, conf.Stream.ActivationID)
	default:
		s = pulse.NewNotificationSocket(cfg)
	}
	s.OnStatus(func(st socket.Status) {
		xlog.Info("stream status", xlog.String("status", st.String()))
	})
	s.OnMessage(func(e envelope.Envelope) {
		xlog.Info("event",
			xlog.String("type", string(e.Kind)),
			xlog.String("id", e.ID),
			xlog.String("payload", string(e.Payload)))
	})
	s.OnDisconnect(func(err error) {
		xlog.Warn("stream interrupted", xlog.Err(err))
	})
	s.Connect()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	s.Close()
	xlog.Info("stream closed", xlog.Any("stats", s.Stats()))
}
