// Command fbtotp serves the TOTP bridge over HTTP and WebSocket.
package main

import (
	"context"

	"github.com/uluru/fbtotp/internal/app"
)

func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(ctx)
}
