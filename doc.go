// Package sa430 drives the Texas Instruments SA430 Sub-1 GHz RF spectrum
// analyzer from the host. The analyzer attaches as a USB CDC serial device
// and speaks a framed, big-endian request/response protocol.
//
// A typical session discovers a device, opens it, initializes it, programs
// a sweep grid and reads calibrated spectra:
//
//	ports, _ := (&sa430.USBScanner{}).Scan()
//	dev, err := sa430.Open(ports[0].Name, nil)
//	if err != nil {
//		// ...
//	}
//	defer dev.Close()
//	if err := dev.Init(); err != nil {
//		// ...
//	}
//	rf, _ := dev.SetEasyRF(0.2)
//	dev.SetCenterSpan(433e6, 10e6, rf.FSWMHz*1e6)
//	dev.SetRefLevel(2)
//	points, err := dev.Sweep()
//
// A Device owns its transport exclusively and is not safe for concurrent
// use; run one Device per goroutine or serialize externally.
package sa430
