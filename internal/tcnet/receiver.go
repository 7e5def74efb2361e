package tcnet

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"
)

// ReceiverConfig selects the sockets a Receiver opens
type ReceiverConfig struct {
	BroadcastPort int
	TimePort      int
	ListenerPort  int
	BroadcastIP   net.IP
	ReadBuffer    int
	// OnDrop is called for every datagram dropped because the queue is full
	OnDrop func()
}

// Datagram is one complete UDP payload
type Datagram struct {
	Data       []byte
	Source     *net.UDPAddr
	Port       int // local port it arrived on
	Dst        net.IP
	ReceivedAt time.Time
}

// Receiver listens on the TCNet broadcast, time and unicast listener
// ports and sends from the listener port so replies come back to it.
type Receiver struct {
	cfg       ReceiverConfig
	logger    *slog.Logger
	datagrams chan *Datagram
	conns     []*ipv4.PacketConn
	rawConns  []net.PacketConn
	listener  net.PacketConn
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
}

// NewReceiver creates a new TCNet receiver
func NewReceiver(cfg ReceiverConfig, logger *slog.Logger) *Receiver {
	if cfg.BroadcastIP == nil {
		cfg.BroadcastIP = net.IPv4bcast
	}
	if cfg.ReadBuffer < MaxPacketSize {
		cfg.ReadBuffer = MaxPacketSize
	}
	return &Receiver{
		cfg:       cfg,
		logger:    logger,
		datagrams: make(chan *Datagram, 1000),
	}
}

// Datagrams returns the channel of received payloads
func (r *Receiver) Datagrams() <-chan *Datagram {
	return r.datagrams
}

// Start opens the sockets and begins reading
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("receiver already started")
	}

	ports := []int{r.cfg.BroadcastPort, r.cfg.TimePort, r.cfg.ListenerPort}
	for _, port := range ports {
		if port == 0 {
			continue
		}
		conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
		if err != nil {
			r.closeLocked()
			return fmt.Errorf("failed to listen on port %d: %w", port, err)
		}
		if uc, ok := conn.(*net.UDPConn); ok {
			if err := uc.SetReadBuffer(r.cfg.ReadBuffer * 64); err != nil {
				r.logger.Warn("could not set read buffer", slog.Int("port", port), slog.String("error", err.Error()))
			}
		}

		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetControlMessage(ipv4.FlagDst, true); err != nil {
			// Non-fatal on some platforms
			r.logger.Debug("could not set control message", slog.Int("port", port), slog.String("error", err.Error()))
		}

		r.rawConns = append(r.rawConns, conn)
		r.conns = append(r.conns, pc)
		if port == r.cfg.ListenerPort {
			r.listener = conn
		}
	}
	r.started = true

	for i, pc := range r.conns {
		r.wg.Add(1)
		go r.readPackets(ctx, pc, localPort(r.rawConns[i]))
	}

	go func() {
		r.wg.Wait()
		close(r.datagrams)
	}()

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	r.logger.Info("receiver started",
		slog.Int("broadcast_port", r.cfg.BroadcastPort),
		slog.Int("time_port", r.cfg.TimePort),
		slog.Int("listener_port", r.cfg.ListenerPort),
		slog.String("broadcast_ip", r.cfg.BroadcastIP.String()),
	)
	return nil
}

// readPackets continuously reads datagrams from one socket
func (r *Receiver) readPackets(ctx context.Context, conn *ipv4.PacketConn, port int) {
	defer r.wg.Done()
	buf := make([]byte, r.cfg.ReadBuffer)

	for {
		n, cm, src, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if !r.isStarted() {
				return
			}
			continue
		}

		d := &Datagram{
			Data:       append([]byte(nil), buf[:n]...),
			Port:       port,
			ReceivedAt: time.Now(),
		}
		if ua, ok := src.(*net.UDPAddr); ok {
			d.Source = ua
		}
		if cm != nil {
			d.Dst = cm.Dst
		}

		// Drop if the consumer is behind
		select {
		case r.datagrams <- d:
		default:
			r.logger.Debug("datagram queue full, dropping", slog.Int("port", port))
			if r.cfg.OnDrop != nil {
				r.cfg.OnDrop()
			}
		}
	}
}

// SendTo sends one encoded packet from the listener port
func (r *Receiver) SendTo(data []byte, addr *net.UDPAddr) error {
	r.mu.RLock()
	conn := r.listener
	r.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("receiver not started")
	}
	if _, err := conn.WriteTo(data, addr); err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}

// Broadcast sends one encoded packet to the broadcast port
func (r *Receiver) Broadcast(data []byte) error {
	return r.SendTo(data, &net.UDPAddr{IP: r.cfg.BroadcastIP, Port: r.cfg.BroadcastPort})
}

// Stop closes every socket
func (r *Receiver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Receiver) closeLocked() {
	for _, c := range r.rawConns {
		c.Close()
	}
	r.rawConns = nil
	r.conns = nil
	r.listener = nil
	r.started = false
}

func (r *Receiver) isStarted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

func localPort(c net.PacketConn) int {
	if ua, ok := c.LocalAddr().(*net.UDPAddr); ok {
		return ua.Port
	}
	return 0
}

// BroadcastAddress returns the IPv4 broadcast address of the named
// interface. An empty name yields the limited broadcast address.
func BroadcastAddress(ifaceName string) (net.IP, error) {
	if ifaceName == "" {
		return net.IPv4bcast, nil
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", ifaceName, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("interface %s addresses: %w", ifaceName, err)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if bcast := DirectedBroadcast(ipnet); bcast != nil {
			return bcast, nil
		}
	}
	return nil, fmt.Errorf("interface %s has no IPv4 address", ifaceName)
}

// DirectedBroadcast returns the broadcast address of an IPv4 network
func DirectedBroadcast(n *net.IPNet) net.IP {
	ip4 := n.IP.To4()
	mask := n.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if ip4 == nil || len(mask) != net.IPv4len {
		return nil
	}
	out := make(net.IP, net.IPv4len)
	for i := range ip4 {
		out[i] = ip4[i] | ^mask[i]
	}
	return out
}
