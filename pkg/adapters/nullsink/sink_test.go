package nullsink

import (
	"image"
	"testing"

	"github.com/user/memstab/pkg/ports"
)

func TestSink(t *testing.T) {
	var sink ports.DebugSink = New()
	if sink.Enabled() {
		t.Error("expected null sink to be disabled")
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := sink.SaveComparison(0, img, img, img); err != nil {
		t.Error(err)
	}
	if err := sink.SaveFlow(0, ports.FlowPair{}); err != nil {
		t.Error(err)
	}
	if err := sink.SaveReportJSON(nil); err != nil {
		t.Error(err)
	}
}
