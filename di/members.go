package di

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldPoint 一个字段注入点。
type fieldPoint struct {
	index int
	dep   Dependency
}

// methodPoint 一个方法注入点：导出的、名称以 Inject 开头的方法，
// 参数全部作为依赖解析后调用。
type methodPoint struct {
	index  int // 指针类型方法集中的序号
	name   string
	params []Dependency
}

// membersInjector 为一个结构体类型执行字段与方法注入。
//
// 注入点在首次使用时解析一次并缓存（按类型），
// 之后的每次注入复用同一份 schema。
type membersInjector struct {
	structType reflect.Type
	fields     []fieldPoint
	methods    []methodPoint
}

// parseMembersInjector 解析 structType（非指针）上的注入点。
//
// 字段注入使用 `di` 标签，语法与注册名称一致：
//
//	Cache *redis.Client `di:"cache"`    // 命名依赖
//	Queue *redis.Client `di:"queue,?"`  // 可选依赖
//	Log   Logger        `di:""`         // 按类型
//
// 方法注入匹配导出的 Inject* 前缀方法，例如 InjectClock(c Clock)。
func parseMembersInjector(structType reflect.Type, e *errs) (*membersInjector, bool) {
	m := &membersInjector{structType: structType}
	ok := true

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tagValue, hasTag := field.Tag.Lookup("di")
		if !hasTag {
			continue
		}
		if field.PkgPath != "" {
			e.addKind(ErrInvalidInjectionPoint,
				"field %v.%s carries a di tag but is unexported and cannot be injected", structType, field.Name)
			ok = false
			continue
		}

		name, optional := parseTag(tagValue)
		key := NamedKeyFor(field.Type, name)
		m.fields = append(m.fields, fieldPoint{
			index: i,
			dep:   fieldDependency(key, optional, structType, field.Name),
		})
	}

	ptrType := reflect.PointerTo(structType)
	for i := 0; i < ptrType.NumMethod(); i++ {
		method := ptrType.Method(i)
		if !strings.HasPrefix(method.Name, "Inject") || method.Name == "Inject" {
			continue
		}
		mt := method.Type // 第 0 个参数是接收者
		var params []Dependency
		for p := 1; p < mt.NumIn(); p++ {
			key := KeyFor(mt.In(p))
			params = append(params, paramDependency(key, structType, method.Name, p-1))
		}
		m.methods = append(m.methods, methodPoint{index: i, name: method.Name, params: params})
	}

	return m, ok
}

// parseTag 解析 di 标签："name,option" 形式，"?" 或 "optional" 表示可选。
func parseTag(tagValue string) (name string, optional bool) {
	parts := strings.Split(tagValue, ",")
	name = strings.TrimSpace(parts[0])
	if name == "?" || name == "optional" {
		name = ""
		optional = true
	}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "optional" || part == "?" {
			optional = true
		}
	}
	return name, optional
}

// dependencies 返回全部非可选注入点依赖，用于绑定初始化时的图解析。
func (m *membersInjector) dependencies() []Dependency {
	var deps []Dependency
	for _, f := range m.fields {
		deps = append(deps, f.dep)
	}
	for _, mp := range m.methods {
		deps = append(deps, mp.params...)
	}
	return deps
}

// inject 对 target（必须是 *Struct 的 reflect.Value）执行字段与方法注入。
// 所有注入点的错误都会累积后一起返回，而不是在第一个失败处停止。
func (m *membersInjector) inject(inj *injector, cc *callContext, target reflect.Value, e *errs) error {
	elem := target.Elem()
	failed := false

	for _, f := range m.fields {
		value, err := inj.provisionDependency(cc, f.dep, e)
		if err != nil {
			failed = true
			continue
		}
		if value == nil {
			continue // 可选依赖缺失，保留零值
		}
		elem.Field(f.index).Set(reflect.ValueOf(value))
	}

	for _, mp := range m.methods {
		args := make([]reflect.Value, 0, len(mp.params))
		argsOK := true
		for _, p := range mp.params {
			value, err := inj.provisionDependency(cc, p, e)
			if err != nil {
				failed = true
				argsOK = false
				continue
			}
			if value == nil {
				args = append(args, reflect.Zero(p.key.typ))
				continue
			}
			args = append(args, reflect.ValueOf(value))
		}
		if !argsOK {
			continue
		}
		invoke := newMethodInvoker(target.Method(mp.index))
		if _, err := invoke(args); err != nil {
			cause := err
			if u, ok := err.(userCodeError); ok {
				cause = u.cause
			}
			e.errorInUserCode(cause, "error in injection method %v.%s: %v", m.structType, mp.name, cause)
			failed = true
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

// membersInjectorFor 返回（并缓存）类型的成员注入 schema。
// target 类型必须是 *Struct。
func (inj *injector) membersInjectorFor(typ reflect.Type, e *errs) (*membersInjector, error) {
	if typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		e.addKind(ErrInvalidInjectionPoint, "members injection requires a pointer to struct, got %v", typ)
		return nil, errFailed
	}
	structType := typ.Elem()

	root := inj.state.root()
	root.membersMu.Lock()
	cached, found := root.membersCache[structType]
	root.membersMu.Unlock()
	if found {
		return cached, nil
	}

	m, ok := parseMembersInjector(structType, e)
	if !ok {
		return nil, errFailed
	}

	root.membersMu.Lock()
	root.membersCache[structType] = m
	root.membersMu.Unlock()
	return m, nil
}

// InjectMembers 对已存在的对象执行字段与方法注入。
// target 必须是指向结构体的指针。
func (inj *injector) InjectMembers(target any) error {
	if target == nil {
		return fmt.Errorf("di: InjectMembers target must not be nil")
	}
	e := newErrs()
	typ := reflect.TypeOf(target)
	m, err := inj.membersInjectorFor(typ, e)
	if err != nil {
		return e.toProvisionError()
	}

	cc := newCallContext(inj, e)
	cc.enter()
	defer cc.exit()

	m.inject(inj, cc, reflect.ValueOf(target), e)
	return e.toProvisionError()
}
