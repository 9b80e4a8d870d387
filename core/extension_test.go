package core

import (
	"strings"
	"testing"
)

// emptyExtension 两个阶段接口都没实现。
type emptyExtension struct{}

func (e *emptyExtension) Name() string { return "Empty" }

// servicesExtension 只参与服务注册阶段。
type servicesExtension struct{}

func (e *servicesExtension) Name() string                           { return "ServicesOnly" }
func (e *servicesExtension) ConfigureServices(s *ServiceCollection) {}

// builderExtension 只参与应用配置阶段。
type builderExtension struct{}

func (e *builderExtension) Name() string                       { return "BuilderOnly" }
func (e *builderExtension) ConfigureBuilder(ctx *BuildContext) {}

// dualExtension 两个阶段都参与。
type dualExtension struct{}

func (e *dualExtension) Name() string                           { return "Dual" }
func (e *dualExtension) ConfigureServices(s *ServiceCollection) {}
func (e *dualExtension) ConfigureBuilder(ctx *BuildContext)     {}

func TestAddExtensionRejectsUselessExtension(t *testing.T) {
	builder := NewApplicationBuilder()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("AddExtension should panic for an extension without any phase interface")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "Extension 'Empty' does not implement any supported interfaces") {
			t.Errorf("Unexpected panic message: %v", r)
		}
	}()

	builder.AddExtension(&emptyExtension{})
}

func TestAddExtensionPhaseRegistration(t *testing.T) {
	cases := []struct {
		name         string
		ext          Extension
		wantServices int
		wantBuilders int
	}{
		{"services only", &servicesExtension{}, 1, 0},
		{"builder only", &builderExtension{}, 0, 1},
		{"both phases", &dualExtension{}, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			builder := NewApplicationBuilder()
			builder.AddExtension(tc.ext)

			if got := len(builder.serviceConfigurators); got != tc.wantServices {
				t.Errorf("Expected %d service configurators, got %d", tc.wantServices, got)
			}
			if got := len(builder.configurators); got != tc.wantBuilders {
				t.Errorf("Expected %d app configurators, got %d", tc.wantBuilders, got)
			}
		})
	}
}

func TestAddExtensionAccumulates(t *testing.T) {
	builder := NewApplicationBuilder()
	builder.AddExtension(&servicesExtension{})
	builder.AddExtension(&builderExtension{})
	builder.AddExtension(&dualExtension{})

	if got := len(builder.serviceConfigurators); got != 2 {
		t.Errorf("Expected 2 service configurators, got %d", got)
	}
	if got := len(builder.configurators); got != 2 {
		t.Errorf("Expected 2 app configurators, got %d", got)
	}
}
