// spi-speed-test checks how reliable the SPI bus is at different clock rates.
// It toggles output 2 and reads it back from GPIOA.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BertoldVdb/go-pfd/logrusconfig"
	"github.com/BertoldVdb/go-pfd/pfdconfig"
	"github.com/BertoldVdb/go-pfd/pifacedigital"
	"github.com/sirupsen/logrus"
)

func measure(log *logrus.Entry, config pfdconfig.Config, iterations int) (int, int, time.Duration, error) {
	pfd, err := config.Open(log)
	if err != nil {
		return 0, 0, 0, err
	}
	defer pfd.Close()

	pin, err := pfd.ClaimOutput(2)
	if err != nil {
		return 0, 0, 0, err
	}
	defer pin.Close()

	good, bad := 0, 0
	start := time.Now()
	for i := 0; i < iterations; i++ {
		level := pifacedigital.Level(i & 1)
		if err := pin.Write(level); err != nil {
			return good, bad, 0, err
		}

		read, err := pin.Read()
		if err != nil {
			return good, bad, 0, err
		}

		if read == level {
			good++
		} else {
			bad++
		}
	}

	return good, bad, time.Since(start), nil
}

func main() {
	logrusconfig.InitParam()
	pfdconfig.InitParam()
	from := flag.Uint("from", 100000, "First clock to test in Hz")
	to := flag.Uint("to", 5000000, "Last clock to test in Hz")
	step := flag.Uint("step", 100000, "Clock increment in Hz")
	iterations := flag.Int("iterations", 1000, "Writes per clock")
	flag.Parse()

	log := logrusconfig.GetLogger("speedtest", logrus.InfoLevel)
	log.Info("Speed test started!")

	config, err := pfdconfig.Get()
	if err != nil {
		log.WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	if *step == 0 {
		*step = 1
	}

	for clock := *from; clock <= *to; clock += *step {
		log.Infof("Speed test started at %d Hz", clock)

		config.Clock = uint32(clock)
		good, bad, taken, err := measure(log, config, *iterations)
		if err != nil {
			log.WithError(err).Errorf("Test at %d Hz failed", clock)
			os.Exit(1)
		}

		fmt.Printf("Speed: %d  Good: %d Bad: %d  Duration: %s\n", clock, good, bad, taken)
	}
}
