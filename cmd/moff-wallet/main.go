package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skip2/go-qrcode"
	"moff.io/moff-wallet/internal/config"
	"moff.io/moff-wallet/internal/http"
	"moff.io/moff-wallet/internal/starter"
	"moff.io/moff-wallet/internal/web3"
	"moff.io/moff-wallet/pkg/errors"
	"moff.io/moff-wallet/pkg/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Infof("Starting app")
	startApp()
}

func startApp() {
	defer func() {
		if i := recover(); i != nil {
			log.Fatal(errors.ErrorfAndReport("%v", i))
		}
	}()
	config.Read()
	log.SetLevelByName(config.Global.LogLevel)
	if err := errors.NewSentryReporter(config.Global.Alarm.SentryDSN); err != nil {
		log.Error(err)
	}
	errors.NewLarkReporter(config.Global.Alarm.LarkWebhook, config.Global.Alarm.ReportSilence)

	wc := config.Global.WalletConnect
	pairing := &http.Pairing{}
	api := web3.WalletConnectProvider.MakeWeb3Api(web3.Options{
		ProjectKey:     wc.ProjectKey,
		BridgeURL:      wc.BridgeURL,
		ChainID:        wc.ChainID,
		ClientMeta:     wc.ClientMeta,
		DisplayQRCode:  displayQRCode(pairing, wc.QRCodePath),
		PairingTimeout: wc.PairingTimeout,
	})
	logEvents(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	server := http.NewServer(api, pairing, wc.PairingTimeout)
	starter.Start(ctx, server)
	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := api.Disconnect(shutdownCtx); err != nil {
		log.Error(err)
	}
	starter.Stop(shutdownCtx, server)
}

// displayQRCode prints the pairing QR to the terminal, keeps it for the http
// surface and writes the PNG to path when set.
func displayQRCode(pairing *http.Pairing, path string) func(uri string, png []byte) error {
	return func(uri string, png []byte) error {
		code, err := qrcode.New(uri, qrcode.Low)
		if err != nil {
			return errors.Wrap(err, "encode pairing uri")
		}
		fmt.Fprintln(os.Stdout, code.ToSmallString(false))
		fmt.Fprintf(os.Stdout, "Scan with a WalletConnect wallet or open: %s\n", uri)
		if path != "" {
			if err := ioutil.WriteFile(path, png, 0644); err != nil {
				return errors.Wrapf(err, "write pairing qr code to %s", path)
			}
			log.Infof("pairing qr code written to %s", path)
		}
		return pairing.Display(uri, png)
	}
}

func logEvents(api web3.Web3Api) {
	api.AddListener(web3.EventWalletConnected, func(args ...interface{}) {
		log.Infof("%s: event %s", api.Name(), web3.EventWalletConnected)
	})
	api.AddListener(web3.EventWalletDisconnected, func(args ...interface{}) {
		log.Infof("%s: event %s", api.Name(), web3.EventWalletDisconnected)
	})
	api.AddListener(web3.EventWalletAccountChanged, func(args ...interface{}) {
		log.Infof("%s: event %s %v", api.Name(), web3.EventWalletAccountChanged, args)
	})
	api.AddListener(web3.EventWalletNetworkChanged, func(args ...interface{}) {
		log.Infof("%s: event %s %v", api.Name(), web3.EventWalletNetworkChanged, args)
	})
}
