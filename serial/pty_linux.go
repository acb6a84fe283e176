package serial

// OpenPTY allocates a pseudoterminal pair and returns the master and slave
// ends as ports. Both ends are placed in raw mode. Tests use a pty pair as a
// loopback stand-in for the analyzer's CDC port.
func OpenPTY() (master, slave *Port, err error) {
	master, err = Open("/dev/ptmx", nil)
	if err != nil {
		return nil, nil, err
	}
	if err := master.setLockPT(false); err != nil {
		master.Close()
		return nil, nil, err
	}
	name, err := master.ptsName()
	if err != nil {
		master.Close()
		return nil, nil, err
	}
	slave, err = Open(name, nil)
	if err != nil {
		master.Close()
		return nil, nil, err
	}
	for _, p := range []*Port{master, slave} {
		attrs, err := p.GetAttr()
		if err != nil {
			master.Close()
			slave.Close()
			return nil, nil, err
		}
		attrs.MakeRaw()
		if err := p.SetAttr(TCSANOW, attrs); err != nil {
			master.Close()
			slave.Close()
			return nil, nil, err
		}
	}
	return master, slave, nil
}
