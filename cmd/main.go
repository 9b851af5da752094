package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	locator "github.com/pospos369/ip-location-api"
	"github.com/pospos369/ip-location-api/util"
)

var (
	configFlag = flag.String("config", "", "configuration file path")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}

	viper.SetDefault("bind", ":8080")
	viper.SetDefault("upstreamTimeout", "5s")
	// The cache is opt-in: lookups go upstream on every request unless an
	// operator sizes it explicitly.
	viper.SetDefault("cacheSize", 0)
	viper.SetDefault("checkInterval", "60s")

	viper.SetConfigName("iplocator")        // name of config file (without extension)
	viper.SetConfigType("yaml")             // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("/etc/iplocator/")  // path to look for the config file in
	viper.AddConfigPath("$HOME/.iplocator") // call multiple times to add many search paths
	viper.AddConfigPath(".")                // optionally look for config in the working directory

	if *configFlag != "" {
		viper.SetConfigFile(*configFlag)
	}

	// Default credentials may come from the environment instead of the
	// config file; they are read once here and never reloaded.
	viper.MustBindEnv("baiduMapAK", "BAIDU_MAP_AK")
	viper.MustBindEnv("amapKey", "AMAP_KEY")

	log.Info("Reading configuration")

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional, the environment can carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.WithError(err).Fatalln("Unable to load config file")
		}
	}

	config := &locator.Config{}

	if err := viper.Unmarshal(config); err != nil {
		log.WithError(err).Fatalln("Unable to unmarshal configuration")
	}

	log.Info("Updating root certificates")

	certs, err := util.LoadCACerts()

	if err != nil {
		log.WithError(err).Fatalln("Unable to load certificates")
	}

	config.SetRootCAs(certs)

	l := locator.New(config)

	// Because we have a bind address, we can start it without the return value.
	l.Start()

	log.Info("Ready")

	c := make(chan os.Signal, 1)

	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	<-c

	log.Info("Shutting down")
}
