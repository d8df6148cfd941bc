// tail attaches to a running sigd fan-out endpoint and prints every
// emitted signal payload, one per line.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"
)

func main() {
	urlFlag := flag.String("url", "ws://localhost:8081/ws", "sigd websocket endpoint")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *urlFlag, nil)
	if err != nil {
		logs.Errorf("tail: dial %s, err: %+v", *urlFlag, err)
		os.Exit(1)
	}
	defer conn.Close()
	logs.Infof("tail: connected to %s", *urlFlag)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logs.Errorf("tail: read, err: %+v", err)
			os.Exit(1)
		}
		os.Stdout.Write(append(payload, '\n'))
	}
}
