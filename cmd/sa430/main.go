// Command sa430 lists and watches SA430 analyzers attached to the host.
//
//	sa430 scan            list detected devices
//	sa430 watch           stream connect/disconnect events until interrupted
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/daedaluz/sa430"
)

func main() {
	interval := pflag.DurationP("interval", "i", 500*time.Millisecond, "rescan interval while watching")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Usage = usage
	pflag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	scanner := &sa430.USBScanner{Interval: *interval}
	switch pflag.Arg(0) {
	case "scan":
		os.Exit(scan(log, scanner))
	case "watch":
		os.Exit(watch(log, scanner))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: sa430 [flags] scan|watch\n")
	pflag.PrintDefaults()
}

func scan(log *logrus.Logger, scanner *sa430.USBScanner) int {
	ports, err := scanner.Scan()
	if err != nil {
		log.WithError(err).Error("scan failed")
		return 1
	}
	if len(ports) == 0 {
		log.Info("no SA430 devices found")
		return 0
	}
	for _, p := range ports {
		fmt.Printf("%s\t%s\n", p.Name, p.SerialNumber)
	}
	return 0
}

func watch(log *logrus.Logger, scanner *sa430.USBScanner) int {
	w, err := scanner.Watch(func(e sa430.Event) {
		log.WithFields(logrus.Fields{
			"port":   e.Port.Name,
			"serial": e.Port.SerialNumber,
		}).Info(e.Type.String())
	})
	if err != nil {
		log.WithError(err).Error("watch failed")
		return 1
	}
	defer w.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	log.Debug("watching for devices")
	<-sig
	return 0
}
