package spi

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	spiIocWrMode        uintptr = 0x40016B01
	spiIocWrBitsPerWord uintptr = 0x40016B03
	spiIocWrMaxSpeedHz  uintptr = 0x40046B04
)

// Mode is the SPI clock polarity/phase mode (0-3)
type Mode uint8

type Device struct {
	mutex     sync.Mutex
	file      *os.File
	Frequency uint32
	DelayUs   uint16
}

var (
	ErrorLength = errors.New("Buffer length does not match")
	ErrorClosed = errors.New("SPI device is closed")
)

func OpenDevice(busID int, deviceID int) (*Device, error) {
	d := &Device{
		Frequency: 1000000,
	}

	var err error
	d.file, err = os.OpenFile(fmt.Sprintf("/dev/spidev%d.%d", busID, deviceID), unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Configure sets the mode, word size and maximum clock of the device
func (d *Device) Configure(mode Mode, frequency uint32) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.file == nil {
		return ErrorClosed
	}

	m := uint8(mode & 3)
	if err := d.ioctlPtr(spiIocWrMode, unsafe.Pointer(&m)); err != nil {
		return err
	}

	bits := uint8(8)
	if err := d.ioctlPtr(spiIocWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return err
	}

	if err := d.ioctlPtr(spiIocWrMaxSpeedHz, unsafe.Pointer(&frequency)); err != nil {
		return err
	}

	d.Frequency = frequency
	return nil
}

func getIoctlId(numTransfers int) uintptr {
	const base uint32 = 0x40006B00

	return uintptr(base + uint32(numTransfers*0x200000))
}

func (d *Device) ioctlPtr(function uintptr, data unsafe.Pointer) error {
	_, _, errNo := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), function, uintptr(data))
	if errNo != 0 {
		return fmt.Errorf("SPI ioctl failed: %s", errNo.Error())
	}
	return nil
}

func (d *Device) Transfer(writeBuf []byte, readBuf []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.file == nil {
		return ErrorClosed
	}

	type iocTransferRaw struct {
		TxBuf       uint64
		RxBuf       uint64
		Len         uint32
		Frequency   uint32
		DelayUs     uint16
		BitsPerWord uint8
		CsChange    uint8
		Pad         uint32
	}

	tr := iocTransferRaw{
		Frequency:   d.Frequency,
		DelayUs:     d.DelayUs,
		BitsPerWord: 8,
	}

	if len(writeBuf) > 0 {
		tr.TxBuf = uint64(uintptr(unsafe.Pointer(&writeBuf[0])))
		tr.Len = uint32(len(writeBuf))
	}
	if len(readBuf) > 0 {
		tr.RxBuf = uint64(uintptr(unsafe.Pointer(&readBuf[0])))
		tr.Len = uint32(len(readBuf))
	}

	if tr.TxBuf == 0 && tr.RxBuf == 0 {
		return nil
	}
	if tr.TxBuf != 0 && tr.RxBuf != 0 {
		if len(readBuf) != len(writeBuf) {
			return ErrorLength
		}
	}

	err := d.ioctlPtr(getIoctlId(1), unsafe.Pointer(&tr))

	runtime.KeepAlive(writeBuf)
	runtime.KeepAlive(readBuf)

	if err != nil {
		return fmt.Errorf("SPI transfer failed: %w", err)
	}

	return nil
}

func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.file == nil {
		return ErrorClosed
	}

	err := d.file.Close()
	d.file = nil
	return err
}
