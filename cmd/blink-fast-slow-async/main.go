// blink-fast-slow-async is blink-fast-slow with the buttons watched on a
// separate goroutine. The main loop only selects on the interrupt channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BertoldVdb/go-pfd/interruptwatch"
	"github.com/BertoldVdb/go-pfd/logrusconfig"
	"github.com/BertoldVdb/go-pfd/pfdconfig"
	"github.com/BertoldVdb/go-pfd/pifacedigital"
	"github.com/sirupsen/logrus"
)

func run(log *logrus.Entry) error {
	config, err := pfdconfig.Get()
	if err != nil {
		return err
	}

	pfd, err := config.Open(log)
	if err != nil {
		return err
	}
	defer pfd.Close()

	buttons := make([]*pifacedigital.InputPin, 3)
	for i := range buttons {
		buttons[i], err = pfd.ClaimPullUpInput(uint8(i))
		if err != nil {
			return err
		}
		defer buttons[i].Close()

		if err := buttons[i].SetInterrupt(pifacedigital.InterruptBothEdges); err != nil {
			return err
		}
	}

	led, err := pfd.ClaimOutputLevel(2, pifacedigital.Low)
	if err != nil {
		return err
	}
	defer led.Close()

	/* An interrupt that is already pending would keep the line low */
	flags, err := pfd.InterruptFlags()
	if err != nil {
		return err
	}
	if _, err := pfd.InterruptCapture(); err != nil {
		return err
	}
	log.Debugf("Cleared pending interrupt flags 0x%02x", flags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := interruptwatch.New(pfd, buttons, interruptwatch.WithLogger(log), interruptwatch.WithBuffer(8))
	result := make(chan (error), 1)
	go func() {
		result <- watcher.Run(ctx)
	}()
	defer func() {
		watcher.Close()
		for range watcher.Events() {
		}
	}()

	period := time.Second
	state := pifacedigital.High

	for {
		if err := led.Write(state); err != nil {
			return err
		}

		select {
		case interrupts, ok := <-watcher.Events():
			if !ok {
				return <-result
			}

			for _, m := range interrupts {
				fmt.Printf("Got button %d (%s)\n", m.Pin.Number()+1, m.Level)
				if m.Level != pifacedigital.Low {
					continue
				}

				switch m.Pin {
				case buttons[0]:
					period /= 2
				case buttons[1]:
					period *= 2
				case buttons[2]:
					fmt.Println("\nBlinking is done!")
					return led.SetLow()
				}
			}

		case <-time.After(period / 2):
			state = state.Not()
		}
	}
}

func main() {
	logrusconfig.InitParam()
	pfdconfig.InitParam()
	flag.Parse()

	log := logrusconfig.GetLogger("blink-async", logrus.InfoLevel)
	log.Info("Async blink started!")

	fmt.Println("Use the push-buttons to control the blink rate via async interrupts:")
	fmt.Println()
	fmt.Println("  Button 1:  Faster")
	fmt.Println("  Button 2:  Slower")
	fmt.Println("  Button 3:  Quit")
	fmt.Println()

	if err := run(log); err != nil {
		log.WithError(err).Error("Blink failed")
		os.Exit(1)
	}
}
