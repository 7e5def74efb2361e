package tcnet

import (
	"net"
	"testing"
)

func TestDirectedBroadcast(t *testing.T) {
	tests := []struct {
		cidr string
		want string
	}{
		{"192.168.1.20/24", "192.168.1.255"},
		{"10.0.0.2/8", "10.255.255.255"},
		{"172.16.5.4/20", "172.16.15.255"},
		{"10.1.2.3/32", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			ip, n, err := net.ParseCIDR(tt.cidr)
			if err != nil {
				t.Fatal(err)
			}
			n.IP = ip
			if got := DirectedBroadcast(n); got.String() != tt.want {
				t.Errorf("DirectedBroadcast() = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestDirectedBroadcast_MappedMask(t *testing.T) {
	n := &net.IPNet{IP: net.ParseIP("192.168.4.7"), Mask: net.CIDRMask(120, 128)}
	if got := DirectedBroadcast(n); got.String() != "192.168.4.255" {
		t.Errorf("DirectedBroadcast() = %v, want 192.168.4.255", got)
	}
}

func TestDirectedBroadcast_IPv6(t *testing.T) {
	_, n, _ := net.ParseCIDR("fe80::1/64")
	if got := DirectedBroadcast(n); got != nil {
		t.Errorf("DirectedBroadcast() = %v, want nil", got)
	}
}

func TestBroadcastAddress_Default(t *testing.T) {
	ip, err := BroadcastAddress("")
	if err != nil || !ip.Equal(net.IPv4bcast) {
		t.Errorf("BroadcastAddress(\"\") = %v, %v", ip, err)
	}
	if _, err := BroadcastAddress("no-such-interface0"); err == nil {
		t.Error("BroadcastAddress() of a missing interface returned nil error")
	}
}

func TestNewReceiver_Defaults(t *testing.T) {
	r := NewReceiver(ReceiverConfig{ReadBuffer: 10}, nil)
	if !r.cfg.BroadcastIP.Equal(net.IPv4bcast) {
		t.Errorf("BroadcastIP = %v, want 255.255.255.255", r.cfg.BroadcastIP)
	}
	if r.cfg.ReadBuffer != MaxPacketSize {
		t.Errorf("ReadBuffer = %d, want %d", r.cfg.ReadBuffer, MaxPacketSize)
	}
	if err := r.SendTo([]byte{1}, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9}); err == nil {
		t.Error("SendTo() before Start returned nil error")
	}
}
