package hostinfo

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/genricoloni/mediabridge/internal/hostinfo/mocks"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func prop(name string) string {
	return hostnameIface + name
}

// fakeRunner answers by command line, failing for anything unknown
func fakeRunner(answers map[string]string) func(context.Context, string, ...string) (string, error) {
	return func(_ context.Context, name string, args ...string) (string, error) {
		key := strings.Join(append([]string{name}, args...), " ")
		if out, ok := answers[key]; ok {
			return out, nil
		}
		return "", fmt.Errorf("unexpected command %q", key)
	}
}

func TestProvider_Describe(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		setupMock func(*mocks.MockDBusClient)
		commands  map[string]string
		want      Descriptor
	}{
		{
			name: "hostnamed Complete",
			goos: "linux",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(hostnameDest, hostnamePath, prop("HardwareModel")).
					Return(dbus.MakeVariant("ThinkPad X1 Carbon"), nil)
				m.EXPECT().GetProperty(hostnameDest, hostnamePath, prop("OperatingSystemPrettyName")).
					Return(dbus.MakeVariant("Fedora Linux 41"), nil)
			},
			want: Descriptor{Model: "ThinkPad X1 Carbon", OSVersion: "Fedora Linux 41"},
		},
		{
			name: "Chassis When Model Missing",
			goos: "linux",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(hostnameDest, hostnamePath, prop("HardwareModel")).
					Return(dbus.Variant{}, fmt.Errorf("unknown property"))
				m.EXPECT().GetProperty(hostnameDest, hostnamePath, prop("Chassis")).
					Return(dbus.MakeVariant("laptop"), nil)
				m.EXPECT().GetProperty(hostnameDest, hostnamePath, prop("OperatingSystemPrettyName")).
					Return(dbus.MakeVariant("Debian GNU/Linux 12"), nil)
			},
			want: Descriptor{Model: "laptop", OSVersion: "Debian GNU/Linux 12"},
		},
		{
			name: "Wrong Type Falls Back To Commands",
			goos: "linux",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().GetProperty(hostnameDest, hostnamePath, gomock.Any()).
					Return(dbus.MakeVariant(42), nil).Times(3)
			},
			commands: map[string]string{
				"sysctl -n hw.model": "",
				"uname -sr":          "Linux 6.8.0\n",
			},
			want: Descriptor{Model: "linux/" + runtime.GOARCH, OSVersion: "Linux 6.8.0"},
		},
		{
			name: "macOS Without Bus",
			goos: "darwin",
			commands: map[string]string{
				"sysctl -n hw.model":      "Mac14,2\n",
				"sw_vers -productVersion": "15.1\n",
			},
			want: Descriptor{Model: "Mac14,2", OSVersion: "macOS 15.1"},
		},
		{
			name: "Everything Fails",
			goos: "freebsd",
			want: Descriptor{Model: "freebsd/" + runtime.GOARCH, OSVersion: "freebsd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			p := &Provider{logger: zap.NewNop(), goos: tt.goos, run: fakeRunner(tt.commands)}
			if tt.setupMock != nil {
				mockClient := mocks.NewMockDBusClient(ctrl)
				tt.setupMock(mockClient)
				p.conn = mockClient
			}

			if got := p.Describe(context.Background()); got != tt.want {
				t.Errorf("Describe() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProvider_DescribeIsCached(t *testing.T) {
	calls := 0
	p := &Provider{
		logger: zap.NewNop(),
		goos:   "darwin",
		run: func(context.Context, string, ...string) (string, error) {
			calls++
			return "x", nil
		},
	}

	first := p.Describe(context.Background())
	second := p.Describe(context.Background())
	if first != second {
		t.Errorf("descriptor changed between calls: %+v vs %+v", first, second)
	}
	if calls != 2 {
		t.Errorf("expected 2 host queries, got %d", calls)
	}
}

func TestProvider_CloseWithoutBus(t *testing.T) {
	p := &Provider{logger: zap.NewNop()}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
