package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 仿真配置文件
type Config struct {
	Circuit CircuitConfig   `yaml:"circuit"`
	Solver  SolverConfig    `yaml:"solver"`
	Output  OutputConfig    `yaml:"output"`
	Buck    ConverterConfig `yaml:"buck"`
	Boost   ConverterConfig `yaml:"boost"`
}

// CircuitConfig 放电回路参数，未填写的字段沿用默认值
type CircuitConfig struct {
	C      Value `yaml:"c"`
	L      Value `yaml:"l"`
	R      Value `yaml:"r"`
	Vc0    Value `yaml:"vc0"`
	Il0    Value `yaml:"il0"`
	TFinal Value `yaml:"t_final"`
}

// SolverConfig 积分器设置
type SolverConfig struct {
	RelTol    Value  `yaml:"rtol"`
	AbsTol    Value  `yaml:"atol"`
	MaxSteps  int    `yaml:"max_steps"`
	Samples   int    `yaml:"samples"`    // >0 时按等间隔时间点输出
	Strategy  string `yaml:"strategy"`   // event | inline
	FirstMode string `yaml:"first_mode"` // series | parallel
}

// OutputConfig 输出设置
type OutputConfig struct {
	Path string `yaml:"path"`
}

// ConverterConfig buck/boost 参数，未填写的字段沿用默认值
type ConverterConfig struct {
	Vin            Value `yaml:"vin"`
	VoutRef        Value `yaml:"vout_ref"`
	L              Value `yaml:"l"`
	C              Value `yaml:"c"`
	R              Value `yaml:"r"`
	Fs             Value `yaml:"fs"`
	Duty           Value `yaml:"duty"`
	TEnd           Value `yaml:"t_end"`
	StepsPerPeriod int   `yaml:"steps_per_period"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			RelTol:    "1e-3",
			AbsTol:    "1e-6",
			MaxSteps:  100000,
			Strategy:  "event",
			FirstMode: "series",
		},
		Output: OutputConfig{Path: "resposta_circuito_separada.png"},
	}
}

// Load 读取 YAML 配置文件
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Parse 在默认配置之上解析 YAML
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Resolve 用配置覆盖 base 中的对应字段
func (c CircuitConfig) Resolve(base Circuit) (Circuit, error) {
	fields := []struct {
		name  string
		value Value
		dst   *float64
	}{
		{"c", c.C, &base.C},
		{"l", c.L, &base.L},
		{"r", c.R, &base.R},
		{"vc0", c.Vc0, &base.Vc0},
		{"il0", c.Il0, &base.Il0},
		{"t_final", c.TFinal, &base.TFinal},
	}
	for _, f := range fields {
		val, err := f.value.ParseFloat64(*f.dst)
		if err != nil {
			return Circuit{}, fmt.Errorf("circuit.%s: %w", f.name, err)
		}
		*f.dst = val
	}
	return base, nil
}

// Tolerances 解析相对/绝对容差
func (s SolverConfig) Tolerances(rel, abs float64) (float64, float64, error) {
	rel, err := s.RelTol.ParseFloat64(rel)
	if err != nil {
		return 0, 0, fmt.Errorf("solver.rtol: %w", err)
	}
	abs, err = s.AbsTol.ParseFloat64(abs)
	if err != nil {
		return 0, 0, fmt.Errorf("solver.atol: %w", err)
	}
	return rel, abs, nil
}
