// blink-fast-slow flashes the LED on output 2. The push buttons change the
// rate: button 1 faster, button 2 slower, button 3 quits.
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

const minPeriod = 125 * time.Millisecond

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

	var buttons [3]*pifacedigital.InputPin
	for i := range buttons {
		buttons[i], err = pfd.ClaimPullUpInput(uint8(i))
		if err != nil {
			return err
		}
		defer buttons[i].Close()

		/* Both edges, otherwise a held button keeps interrupting */
		if err := buttons[i].SetInterrupt(pifacedigital.InterruptBothEdges); err != nil {
			return err
		}
	}
	faster, slower, quit := buttons[0], buttons[1], buttons[2]

	led, err := pfd.ClaimOutputLevel(2, pifacedigital.Low)
	if err != nil {
		return err
	}
	defer led.Close()

	period := time.Second
	state := pifacedigital.High

	for {
		if err := led.Write(state); err != nil {
			return err
		}

		interrupts, ok, err := pfd.PollInterrupts(buttons[:], false, period/2)
		if err != nil {
			log.WithError(err).Error("Poll failed unexpectedly")
			return err
		}

		if !ok {
			state = state.Not()
			continue
		}

		for _, m := range interrupts {
			switch {
			case m.Level != pifacedigital.Low:
				log.Infof("Ignoring button %d going %s", m.Pin.Number()+1, m.Level)

			case m.Pin == faster:
				period /= 2
				if period < minPeriod {
					period = minPeriod
				}
				fmt.Printf("Going faster: %.2f Hz\n", float64(time.Second)/float64(period))

			case m.Pin == slower:
				period *= 2
				fmt.Printf("Going slower: %.2f Hz\n", float64(time.Second)/float64(period))

			case m.Pin == quit:
				fmt.Println("\nBlinking is done!")
				return led.SetLow()
			}
		}
	}
}

func main() {
	logrusconfig.InitParam()
	pfdconfig.InitParam()
	flag.Parse()

	log := logrusconfig.GetLogger("blink", logrus.InfoLevel)
	log.Info("Blink started!")

	fmt.Println("Use the push-buttons to control the blink rate:")
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
