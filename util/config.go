package util

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const Name = "mammut"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host         string `yaml:"host"`
		HttpPort     int    `yaml:"httpPort"`
		SshPort      int    `yaml:"sshPort"`
		NodeName     string `yaml:"nodeName"`
		NodeUsername string `yaml:"nodeUsername"`
		NodePassword string `yaml:"nodePassword"`
		AdminToken   string `yaml:"adminToken"`
		PageSize     int    `yaml:"pageSize"`
		PeerTimeout  int    `yaml:"peerTimeoutSeconds"`
	}
}

// ApiBase returns the node's base URL including the /api/ suffix, the prefix
// of every fqid this node mints.
func (c *AppConfig) ApiBase() string {
	return fmt.Sprintf("http://%s:%d/api/", c.Conf.Host, c.Conf.HttpPort)
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	buf, err = os.ReadFile(configPath)
	if err != nil {
		// No config file yet, fall back to embedded defaults and write a
		// starter config for the next run.
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envHost := os.Getenv("MAMMUT_HOST")
	envHttpPort := os.Getenv("MAMMUT_HTTPPORT")
	envSshPort := os.Getenv("MAMMUT_SSHPORT")
	envNodeName := os.Getenv("MAMMUT_NODENAME")
	envNodeUsername := os.Getenv("MAMMUT_NODEUSERNAME")
	envNodePassword := os.Getenv("MAMMUT_NODEPASSWORD")
	envAdminToken := os.Getenv("MAMMUT_ADMINTOKEN")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envSshPort != "" {
		v, err := strconv.Atoi(envSshPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.SshPort = v
	}

	if envNodeName != "" {
		c.Conf.NodeName = envNodeName
	}

	if envNodeUsername != "" {
		c.Conf.NodeUsername = envNodeUsername
	}

	if envNodePassword != "" {
		c.Conf.NodePassword = envNodePassword
	}

	if envAdminToken != "" {
		c.Conf.AdminToken = envAdminToken
	}

	if c.Conf.PageSize <= 0 {
		c.Conf.PageSize = 20
	}

	if c.Conf.PeerTimeout <= 0 {
		c.Conf.PeerTimeout = 10
	}

	return c, nil
}
