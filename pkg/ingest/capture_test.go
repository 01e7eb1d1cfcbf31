package ingest

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	macA = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	macB = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
)

type capturedPacket struct {
	at   time.Time
	data []byte
}

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func ipv4(src, dst string, proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
}

func udpPacket(t *testing.T, src, dst string, sport, dport uint16, payload string) []byte {
	t.Helper()
	ip := ipv4(src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: layers.UDPPort(sport), DstPort: layers.UDPPort(dport)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	eth := &layers.Ethernet{SrcMAC: macA, DstMAC: macB, EthernetType: layers.EthernetTypeIPv4}
	return serialize(t, eth, ip, udp, gopacket.Payload(payload))
}

func tcpPacket(t *testing.T, src, dst string, sport, dport uint16, payload string) []byte {
	t.Helper()
	ip := ipv4(src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{SrcPort: layers.TCPPort(sport), DstPort: layers.TCPPort(dport), Seq: 1, PSH: true, ACK: true, Window: 1024}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	eth := &layers.Ethernet{SrcMAC: macA, DstMAC: macB, EthernetType: layers.EthernetTypeIPv4}
	return serialize(t, eth, ip, tcp, gopacket.Payload(payload))
}

func arpPacket(t *testing.T) []byte {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: macA, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   macA,
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    []byte{10, 0, 0, 2},
	}
	return serialize(t, eth, arp)
}

func sipMessage(firstLine, from, to, callID string) string {
	return strings.Join([]string{
		firstLine,
		"Via: SIP/2.0/UDP 10.0.0.1:5060;branch=z9hG4bK776asdhds",
		"From: " + from,
		"To: " + to,
		"Call-ID: " + callID,
		"CSeq: 1 INVITE",
		"Content-Length: 0",
		"", "",
	}, "\r\n")
}

func writePcap(t *testing.T, name string, packets []capturedPacket) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	ci := func(p capturedPacket) gopacket.CaptureInfo {
		return gopacket.CaptureInfo{Timestamp: p.at, CaptureLength: len(p.data), Length: len(p.data)}
	}
	if filepath.Ext(name) == ".pcapng" {
		w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
		require.NoError(t, err)
		for _, p := range packets {
			require.NoError(t, w.WritePacket(ci(p), p.data))
		}
		require.NoError(t, w.Flush())
		return path
	}

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for _, p := range packets {
		require.NoError(t, w.WritePacket(ci(p), p.data))
	}
	return path
}

func TestIsCapture(t *testing.T) {
	assert.True(t, IsCapture("dump.pcap"))
	assert.True(t, IsCapture("dump.PCAPNG"))
	assert.False(t, IsCapture("ipdr.csv"))
}

func TestLoaderCapture(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	invite := sipMessage("INVITE sip:5552002@10.0.0.2 SIP/2.0",
		`"Alice" <sip:5551001@10.0.0.1>;tag=1928301774`, "<sip:5552002@10.0.0.2>", "a84b4c76e66710")
	offPort := sipMessage("INVITE sips:5553003@10.0.0.3 SIP/2.0",
		"<sips:5551001@10.0.0.1>;tag=9", "<sips:5553003@10.0.0.3>", "off-port-call")
	ok := sipMessage("SIP/2.0 200 OK",
		`"Alice" <sip:5551001@10.0.0.1>;tag=1928301774`, "<sip:5552002@10.0.0.2>;tag=a6c85cf", "a84b4c76e66710")

	path := writePcap(t, "dump.pcap", []capturedPacket{
		{at, udpPacket(t, "10.0.0.1", "10.0.0.2", 5060, 5060, invite)},
		{at.Add(time.Second), udpPacket(t, "10.0.0.2", "10.0.0.1", 5060, 5060, ok)},
		{at.Add(2 * time.Second), tcpPacket(t, "10.0.0.1", "93.184.216.34", 40000, 9999, "hello")},
		{at.Add(3 * time.Second), arpPacket(t)},
		{at.Add(4 * time.Second), udpPacket(t, "10.0.0.1", "10.0.0.3", 5070, 5070, offPort)},
	})

	capture, stats, err := NewLoader(nil).Capture(path)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 4, stats.Loaded)
	assert.Equal(t, 1, stats.Skipped)

	require.Len(t, capture.Flows, 4)
	first := capture.Flows[0]
	assert.True(t, first.Timestamp.Equal(at))
	assert.Equal(t, "10.0.0.1", first.SrcIP)
	assert.Equal(t, "10.0.0.2", first.DstIP)
	assert.Equal(t, "SIP", first.Protocol)
	require.NotNil(t, first.DstPort)
	assert.Equal(t, int64(5060), *first.DstPort)
	require.NotNil(t, first.BytesSent)
	assert.Positive(t, *first.BytesSent)

	web := capture.Flows[2]
	assert.Equal(t, "TCP", web.Protocol)
	assert.Equal(t, "93.184.216.34", web.DstIP)
	assert.Equal(t, int64(9999), *web.DstPort)

	require.Len(t, capture.Calls, 2)
	call := capture.Calls[0]
	assert.Equal(t, "a84b4c76e66710", call.CallID)
	assert.Equal(t, "5551001", call.FromNumber)
	assert.Equal(t, "5552002", call.ToNumber)
	assert.Equal(t, "INVITE", call.Method)
	assert.True(t, call.Timestamp.Equal(at))

	assert.Equal(t, "off-port-call", capture.Calls[1].CallID)
	assert.Equal(t, "5553003", capture.Calls[1].ToNumber)
	assert.Equal(t, "SIP", capture.Flows[3].Protocol)
}

func TestLoaderCapturePcapng(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	path := writePcap(t, "dump.pcapng", []capturedPacket{
		{at, udpPacket(t, "10.0.0.1", "10.0.0.2", 40000, 53, "not really dns")},
		{at.Add(time.Minute), tcpPacket(t, "10.0.0.2", "10.0.0.1", 9999, 40000, "reply")},
	})

	capture, stats, err := NewLoader(nil).Capture(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Empty(t, capture.Calls)
	assert.NotNil(t, capture.Calls)
	assert.True(t, capture.Flows[1].Timestamp.Equal(at.Add(time.Minute)))
}

func TestLoaderCaptureErrors(t *testing.T) {
	_, _, err := NewLoader(nil).Capture(filepath.Join(t.TempDir(), "absent.pcap"))
	assert.True(t, IsMissing(err))

	_, _, err = NewLoader(nil).Capture(writeFile(t, "empty.pcap", ""))
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, _, err = NewLoader(nil).Capture(writeFile(t, "garbage.pcap", "source_number,destination_number\n"))
	require.Error(t, err)
	assert.False(t, IsMissing(err))
}

func TestSipUser(t *testing.T) {
	for header, want := range map[string]string{
		`"Alice" <sip:1001@example.com>;tag=7`: "1001",
		"<sips:+61400111222@carrier.net>":      "+61400111222",
		"<tel:5551234;phone-context=example>":  "5551234",
		"sip:bob@biloxi.com":                   "bob",
		"Anonymous":                            "",
	} {
		assert.Equal(t, want, sipUser(header), header)
	}
}
