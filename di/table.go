package di

// idTable 是一个以整数 id 为键的开放寻址哈希表。
//
// 解析一个不大的对象图也可能触发数百次构造上下文的插入 / 查找 / 删除，
// 所以这里不用通用 map，而是线性探测 + robin hood 位移策略的专用表：
// 插入时如果当前元素的探测距离大于槽位中已有元素的探测距离就交换两者，
// 使最大探测距离保持最小；负载因子超过 2/3 时容量翻倍；
// 删除时向后压缩探测链，维持 "任何键的探测距离不会超过更应得该槽位的键" 这一不变量。
type idTable struct {
	slots []idSlot
	count int
}

type idSlot struct {
	key  int
	val  any
	used bool
}

const idTableInitialSize = 16 // 必须是 2 的幂

func newIDTable() *idTable {
	return &idTable{slots: make([]idSlot, idTableInitialSize)}
}

// home 计算 key 的理想槽位（fibonacci 散列，低位扰动充分）。
func (t *idTable) home(key int) int {
	h := uint64(key) * 0x9E3779B97F4A7C15
	return int(h >> 32 & uint64(len(t.slots)-1))
}

// distance 返回槽位 i 中元素的探测距离。
func (t *idTable) distance(i int) int {
	return (i - t.home(t.slots[i].key) + len(t.slots)) & (len(t.slots) - 1)
}

// get 返回 key 对应的值，不存在时返回 (nil, false)。
func (t *idTable) get(key int) (any, bool) {
	mask := len(t.slots) - 1
	i := t.home(key)
	dist := 0
	for {
		s := &t.slots[i]
		if !s.used {
			return nil, false
		}
		if s.key == key {
			return s.val, true
		}
		// robin hood 不变量：一旦我们的距离超过槽中元素的距离，key 必然不存在
		if dist > t.distance(i) {
			return nil, false
		}
		i = (i + 1) & mask
		dist++
	}
}

// contains 报告 key 是否在表中。
func (t *idTable) contains(key int) bool {
	_, ok := t.get(key)
	return ok
}

// put 插入或覆盖 key 对应的值。
func (t *idTable) put(key int, val any) {
	if (t.count+1)*3 > len(t.slots)*2 {
		t.grow()
	}
	t.insert(key, val)
}

func (t *idTable) insert(key int, val any) {
	mask := len(t.slots) - 1
	i := t.home(key)
	dist := 0
	cur := idSlot{key: key, val: val, used: true}
	for {
		s := &t.slots[i]
		if !s.used {
			*s = cur
			t.count++
			return
		}
		if s.key == cur.key {
			s.val = cur.val
			return
		}
		// robin hood 位移：抢占更接近理想位置的元素的槽位
		if existing := t.distance(i); existing < dist {
			cur, *s = *s, cur
			dist = existing
		}
		i = (i + 1) & mask
		dist++
	}
}

// remove 删除 key，返回是否删除了元素。
// 删除后向后压缩探测链：把后续探测距离大于零的元素逐个前移，
// 直到遇到空槽或探测距离为零的元素。
func (t *idTable) remove(key int) bool {
	mask := len(t.slots) - 1
	i := t.home(key)
	dist := 0
	for {
		s := &t.slots[i]
		if !s.used {
			return false
		}
		if s.key == key {
			break
		}
		if dist > t.distance(i) {
			return false
		}
		i = (i + 1) & mask
		dist++
	}

	// 压缩
	for {
		next := (i + 1) & mask
		ns := &t.slots[next]
		if !ns.used || t.distance(next) == 0 {
			t.slots[i] = idSlot{}
			break
		}
		t.slots[i] = *ns
		i = next
	}
	t.count--
	return true
}

// size 返回元素个数。
func (t *idTable) size() int {
	return t.count
}

func (t *idTable) grow() {
	old := t.slots
	t.slots = make([]idSlot, len(old)*2)
	t.count = 0
	for _, s := range old {
		if s.used {
			t.insert(s.key, s.val)
		}
	}
}
