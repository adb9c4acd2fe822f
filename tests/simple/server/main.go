package main

import (
	"flag"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/saihaj/graphql-mesh/tests/simple/upstream"
)

func main() {
	addr := flag.String("addr", ":4001", "the address to listen on")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	h := upstream.Handler()
	logged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		logger.Info("request", zap.String("method", r.Method), zap.String("uri", r.RequestURI), zap.Duration("duration", time.Since(start)))
	})

	logger.Info("REST upstream starting", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, logged); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
