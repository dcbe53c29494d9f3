package configure

import (
	"strings"
	"testing"

	"github.com/socialsync/api/internal/testutil"
	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	c := Default()

	testutil.Assert(t, BrokerModeRedis, c.Broker.Mode, "broker mode")
	testutil.Assert(t, "json", c.Broker.Codec, "broker codec")
	testutil.Assert(t, 3, len(c.Broker.Channels), "relay channels")
	testutil.Assert(t, true, c.Realtime.SendBuffer > 0, "send buffer is positive")
}

func TestBindEnvs(t *testing.T) {
	t.Setenv("SOCIALSYNC_BROKER_MODE", "nats")
	t.Setenv("SOCIALSYNC_REALTIME_PING_INTERVAL", "3s")

	v := viper.New()
	BindEnvs(v, Config{})
	v.AutomaticEnv()
	v.SetEnvPrefix("SOCIALSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	c := Config{}
	testutil.IsNil(t, v.Unmarshal(&c), "unmarshal")

	testutil.Assert(t, BrokerModeNATS, c.Broker.Mode, "broker mode from env")
	testutil.Assert(t, "3s", c.Realtime.PingInterval.String(), "ping interval from env")
}

func TestLabels(t *testing.T) {
	l := Labels{{Key: "region", Value: "eu"}}

	testutil.Assert(t, "eu", l.ToPrometheus()["region"], "label value")
}
