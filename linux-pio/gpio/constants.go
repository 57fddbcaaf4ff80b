package gpio

const gpioGetChipinfoIoctl uintptr = 0x8044b401
const gpioGetLineinfoIoctl uintptr = 0xc048b402
const gpioGetLineeventIoctl uintptr = 0xc030b404
const gpiohandleGetLineValuesIoctl uintptr = 0xc040b408

type LineFlag uint32

const LineKernel LineFlag = 0x00000001
const LineIsOut LineFlag = 0x00000002
const LineActiveLow LineFlag = 0x00000004
const LineOpenDrain LineFlag = 0x00000008
const LineOpenSource LineFlag = 0x00000010

type RequestFlag uint32

const RequestInput RequestFlag = 0x00000001
const RequestActiveLow RequestFlag = 0x00000004

type EventFlag uint32

const EventRisingEdge EventFlag = 0x00000001
const EventFallingEdge EventFlag = 0x00000002
const EventBothEdges = EventRisingEdge | EventFallingEdge

type EventID uint32

const EventIDRisingEdge EventID = 0x01
const EventIDFallingEdge EventID = 0x02

func (e EventID) String() string {
	switch e {
	case EventIDRisingEdge:
		return "rising"
	case EventIDFallingEdge:
		return "falling"
	}
	return "unknown"
}

// sizeof(struct gpioevent_data)
const eventDataSize = 16
