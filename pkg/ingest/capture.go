package ingest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// IsCapture reports whether path names a packet capture usable as IPDR input.
func IsCapture(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcap", ".pcapng":
		return true
	}
	return false
}

// Capture is what a packet capture yields: one flow per IP packet and the
// SIP INVITEs found among them.
type Capture struct {
	Flows []records.IPFlowRecord
	Calls []records.VoIPCall
}

// packetSource is implemented by both pcapgo readers.
type packetSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openCapture(f *os.File) (packetSource, error) {
	if strings.ToLower(filepath.Ext(f.Name())) == ".pcapng" {
		return pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(f)
}

// Capture reads a PCAP or PCAPNG file. Each IP packet becomes a flow whose
// protocol is the highest decoded layer and whose BytesSent is the wire
// length. Non-IP packets are counted as skipped. A capture cut short by a
// truncated final record keeps the packets read before it.
func (l *Loader) Capture(path string) (*Capture, LoadStats, error) {
	stats := LoadStats{Table: IPDRSchema.Table, Path: path}
	fail := func(err error) (*Capture, LoadStats, error) {
		return nil, stats, &InputError{Op: "read", Table: IPDRSchema.Table, Path: path, Cause: err}
	}

	if err := statInput(IPDRSchema, path); err != nil {
		return nil, stats, err
	}
	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	src, err := openCapture(f)
	if errors.Is(err, io.EOF) {
		return fail(ErrEmptyTable)
	}
	if err != nil {
		return fail(err)
	}

	c := &Capture{Calls: []records.VoIPCall{}}
	decode := gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	for {
		data, ci, err := src.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			l.logger.Warn("capture truncated", logging.Path(path), logging.Records(stats.Rows))
			break
		}
		if err != nil {
			return fail(err)
		}
		stats.Rows++

		packet := gopacket.NewPacket(data, src.LinkType(), decode)
		flow, ok := packetFlow(packet, ci)
		if !ok {
			stats.Skipped++
			continue
		}
		if sip := sipInvite(packet); sip != nil {
			flow.Protocol = layers.LayerTypeSIP.String()
			c.Calls = append(c.Calls, records.VoIPCall{
				CallID:     sip.GetCallID(),
				Timestamp:  flow.Timestamp,
				FromNumber: sipUser(sip.GetFrom()),
				ToNumber:   sipUser(sip.GetTo()),
				Method:     layers.SIPMethodInvite.String(),
				SrcIP:      flow.SrcIP,
				DstIP:      flow.DstIP,
			})
		}
		c.Flows = append(c.Flows, flow)
	}

	stats.Loaded = len(c.Flows)
	l.logger.Info("sip invites extracted", logging.Path(path), logging.Count(len(c.Calls)))
	return c, l.finish(stats, nil), nil
}

func packetFlow(packet gopacket.Packet, ci gopacket.CaptureInfo) (records.IPFlowRecord, bool) {
	net := packet.NetworkLayer()
	if net == nil {
		return records.IPFlowRecord{}, false
	}
	var src, dst string
	switch ip := net.(type) {
	case *layers.IPv4:
		src, dst = ip.SrcIP.String(), ip.DstIP.String()
	case *layers.IPv6:
		src, dst = ip.SrcIP.String(), ip.DstIP.String()
	default:
		return records.IPFlowRecord{}, false
	}

	length := int64(ci.Length)
	flow := records.IPFlowRecord{
		Timestamp: ci.Timestamp.UTC(),
		SrcIP:     src,
		DstIP:     dst,
		Protocol:  highestLayer(packet),
		BytesSent: &length,
	}
	switch tl := packet.TransportLayer().(type) {
	case *layers.TCP:
		flow.SrcPort, flow.DstPort = port(uint16(tl.SrcPort)), port(uint16(tl.DstPort))
	case *layers.UDP:
		flow.SrcPort, flow.DstPort = port(uint16(tl.SrcPort)), port(uint16(tl.DstPort))
	}
	return flow, true
}

func port(p uint16) *int64 {
	v := int64(p)
	return &v
}

// highestLayer names the innermost decoded protocol, ignoring raw payload.
func highestLayer(packet gopacket.Packet) string {
	ls := packet.Layers()
	for i := len(ls) - 1; i >= 0; i-- {
		switch ls[i].LayerType() {
		case gopacket.LayerTypePayload, gopacket.LayerTypeDecodeFailure:
			continue
		}
		return ls[i].LayerType().String()
	}
	return "Unknown"
}

// sipInvite returns the SIP INVITE request carried by packet, if any. SIP on
// non-standard ports is not decoded by gopacket, so raw payloads that start
// with the INVITE request line are parsed directly.
func sipInvite(packet gopacket.Packet) *layers.SIP {
	if sip, ok := packet.Layer(layers.LayerTypeSIP).(*layers.SIP); ok {
		if !sip.IsResponse && sip.Method == layers.SIPMethodInvite {
			return sip
		}
		return nil
	}
	app := packet.ApplicationLayer()
	if app == nil || !bytes.HasPrefix(app.Payload(), []byte("INVITE ")) {
		return nil
	}
	sip := layers.NewSIP()
	if err := sip.DecodeFromBytes(app.Payload(), gopacket.NilDecodeFeedback); err != nil {
		return nil
	}
	return sip
}

// sipUser extracts the user part of the URI in a From or To header, e.g.
// "1001" from `"Alice" <sip:1001@example.com>;tag=7`.
func sipUser(header string) string {
	for _, scheme := range []string{"sips:", "sip:", "tel:"} {
		i := strings.Index(header, scheme)
		if i < 0 {
			continue
		}
		rest := header[i+len(scheme):]
		if end := strings.IndexAny(rest, "@;>"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}
