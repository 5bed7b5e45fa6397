package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lancerhub/webhook-guard/authz"
	authzredis "github.com/lancerhub/webhook-guard/authz/redis"
	"github.com/lancerhub/webhook-guard/config"
	internalchi "github.com/lancerhub/webhook-guard/internal/http/chi"
	"github.com/lancerhub/webhook-guard/metrics"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/* “a porta de entrada e saída da minha aplicação”
 * É no main.go onde é feita toda a “amarração” dos demais pacotes:
 * iniciamos as dependências, fazemos as configurações e a invocação dos
 * pacotes que desempenham a lógica de negócio.
 *
 * As importações devem ser feitas apenas em uma direção: para baixo. O
 * aplicativo (api, sweeper) importa camadas de negócios, que importam a
 * camada de armazenamento.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "webhook-guard-api").Logger()

	ledger, err := authzredis.NewLedger(
		cfg.RedisAddr,
		cfg.RedisPassword,
		cfg.RedisDB,
		time.Duration(cfg.DedupTTLHours)*time.Hour,
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer ledger.Close(ctx)

	secrets := authz.StaticSecrets{
		authz.Stripe:  cfg.StripeWebhookSecret,
		authz.GitHub:  cfg.GitHubWebhookSecret,
		authz.Shopify: cfg.ShopifyWebhookSecret,
	}

	gateway := authz.NewGateway(secrets, ledger, logger)

	collector := metrics.NewRedisCollector(ledger.GetClient(), ledger)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(ctx)
	recorder := metrics.NewRedisRecorder(ledger.GetClient())

	r := internalchi.Handlers(ctx, gateway, recorder, exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
