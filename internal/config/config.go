package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type AgentConfig struct {
	Address           string `yaml:"address"`
	PollInterval      int    `yaml:"poll_interval"`
	Source            string `yaml:"source"`
	ProcPath          string `yaml:"proc_path"`
	SysPath           string `yaml:"sys_path"`
	NetworkInterface  string `yaml:"network_interface"`
	DiskDevice        string `yaml:"disk_device"`
	LogLevel          string `yaml:"log_level"`
	SimulateAllocator bool   `yaml:"simulate_allocator"`
	HeapSize          int    `yaml:"heap_size"`
	AuditFile         string `yaml:"audit_file"`
	AuditURL          string `yaml:"audit_url"`
}

func defaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Address:           ":8000",
		PollInterval:      1,
		Source:            SourceProcFS,
		ProcPath:          "/proc",
		SysPath:           "/sys",
		LogLevel:          "info",
		SimulateAllocator: true,
		HeapSize:          64 * 1024,
	}
}

// NewAgentConfig builds the agent configuration from, in increasing priority:
// defaults, the YAML file named by -c or CONFIG, command-line flags that were
// explicitly set, and environment variables.
func NewAgentConfig(args []string) (*AgentConfig, error) {
	config := defaultAgentConfig()

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	configPath := fs.String("c", "", "Path to a YAML configuration file")
	address := fs.String("a", config.Address, "Address to serve metrics on")
	pollInterval := fs.Int("p", config.PollInterval, "Sampling interval in seconds")
	source := fs.String("s", config.Source, "Counter source: procfs or gopsutil")
	procPath := fs.String("proc", config.ProcPath, "procfs mount point")
	sysPath := fs.String("sys", config.SysPath, "sysfs mount point")
	netInterface := fs.String("i", config.NetworkInterface, "Network interface (empty aggregates all but loopback)")
	diskDevice := fs.String("d", config.DiskDevice, "Disk device (empty aggregates all whole disks)")
	logLevel := fs.String("log-level", config.LogLevel, "Log level: debug, info, warn, error")
	simulate := fs.Bool("alloc", config.SimulateAllocator, "Run the allocator workload simulation")
	heapSize := fs.Int("heap", config.HeapSize, "Simulated heap size in bytes per strategy")
	auditFile := fs.String("audit-file", config.AuditFile, "File to append scrape audit events to")
	auditURL := fs.String("audit-url", config.AuditURL, "URL to post scrape audit events to")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envConfig := os.Getenv("CONFIG"); envConfig != "" {
		*configPath = envConfig
	}
	if *configPath != "" {
		if err := loadFile(*configPath, config); err != nil {
			return nil, err
		}
	}

	// Flags only override the file when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			config.Address = *address
		case "p":
			config.PollInterval = *pollInterval
		case "s":
			config.Source = *source
		case "proc":
			config.ProcPath = *procPath
		case "sys":
			config.SysPath = *sysPath
		case "i":
			config.NetworkInterface = *netInterface
		case "d":
			config.DiskDevice = *diskDevice
		case "log-level":
			config.LogLevel = *logLevel
		case "alloc":
			config.SimulateAllocator = *simulate
		case "heap":
			config.HeapSize = *heapSize
		case "audit-file":
			config.AuditFile = *auditFile
		case "audit-url":
			config.AuditURL = *auditURL
		}
	})

	envStrVars := map[string]*string{
		"ADDRESS":       &config.Address,
		"SOURCE":        &config.Source,
		"PROC_PATH":     &config.ProcPath,
		"SYS_PATH":      &config.SysPath,
		"NET_INTERFACE": &config.NetworkInterface,
		"DISK_DEVICE":   &config.DiskDevice,
		"LOG_LEVEL":     &config.LogLevel,
		"AUDIT_FILE":    &config.AuditFile,
		"AUDIT_URL":     &config.AuditURL,
	}
	for envVar, field := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*field = envValue
		}
	}

	envIntVars := map[string]*int{
		"POLL_INTERVAL": &config.PollInterval,
		"HEAP_SIZE":     &config.HeapSize,
	}
	for envVar, field := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			value, err := strconv.Atoi(envValue)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", envVar, envValue, err)
			}
			*field = value
		}
	}

	if envSimulate := os.Getenv("SIMULATE_ALLOCATOR"); envSimulate != "" {
		simulate, err := strconv.ParseBool(envSimulate)
		if err != nil {
			return nil, fmt.Errorf("invalid SIMULATE_ALLOCATOR value %q: %w", envSimulate, err)
		}
		config.SimulateAllocator = simulate
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadFile(path string, config *AgentConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func (c *AgentConfig) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", c.PollInterval)
	}
	if c.ProcPath == "" || c.SysPath == "" {
		return fmt.Errorf("proc and sys mount points must be set")
	}
	if c.Source != SourceProcFS && c.Source != SourceGopsutil {
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.SimulateAllocator && c.HeapSize <= 0 {
		return fmt.Errorf("heap size must be positive, got %d", c.HeapSize)
	}
	return nil
}
