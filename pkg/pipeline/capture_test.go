package pipeline

import (
	"context"
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

	"github.com/dd0wney/cluso-telco/pkg/export"
)

// writeSIPCapture writes a capture holding one SIP INVITE sent at at.
func writeSIPCapture(t *testing.T, path string, at time.Time) {
	t.Helper()
	invite := strings.Join([]string{
		"INVITE sip:5551003@10.0.0.2 SIP/2.0",
		"Via: SIP/2.0/UDP 10.0.0.1:5060;branch=z9hG4bK1",
		"From: <sip:5551000@10.0.0.1>;tag=1",
		"To: <sip:5551003@10.0.0.2>",
		"Call-ID: case-call-1",
		"CSeq: 1 INVITE",
		"Content-Length: 0",
		"", "",
	}, "\r\n")

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(10, 0, 0, 1).To4(),
		DstIP:    net.IPv4(10, 0, 0, 2).To4(),
	}
	udp := &layers.UDP{SrcPort: 5060, DstPort: 5060}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf,
		gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		eth, ip, udp, gopacket.Payload(invite)))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	data := buf.Bytes()
	require.NoError(t, w.WritePacket(gopacket.CaptureInfo{Timestamp: at, CaptureLength: len(data), Length: len(data)}, data))
}

func TestRunCaptureAsIPDR(t *testing.T) {
	cfg := fixture(t)
	cfg.Inputs.IPDR = filepath.Join(t.TempDir(), "traffic.pcap")
	writeSIPCapture(t, cfg.Inputs.IPDR, base.Add(5*time.Minute))
	require.NoError(t, cfg.Validate())

	res, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.Records.Flows)
	assert.Equal(t, 1, res.Summary.VoIPCalls)
	require.Len(t, res.VoIPCalls, 1)
	assert.Equal(t, "5551000", res.VoIPCalls[0].FromNumber)

	rows := readCSV(t, filepath.Join(cfg.Output.Dir, export.VoIPCalls+".csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"case-call-1", stamp(5), "5551000", "5551003", "INVITE", "10.0.0.1", "10.0.0.2"}, rows[1])
	assert.Equal(t, 1, res.Summary.Findings[export.VoIPCalls])

	// the capture's flow still takes part in Call×IP correlation
	assert.NotEmpty(t, res.Correlation.IP)
}

func TestRunCSVIPDRWritesNoVoIPTable(t *testing.T) {
	cfg := fixture(t)
	res, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.VoIPCalls)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, export.VoIPCalls+".csv"))
}
