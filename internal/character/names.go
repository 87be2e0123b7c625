package character

// NameTable holds the pools names are drawn from.
type NameTable struct {
	Surnames []string `yaml:"surnames"`
	Male     []string `yaml:"male"`
	Female   []string `yaml:"female"`
}

// DefaultNames is used when no content file overrides the tables.
var DefaultNames = NameTable{
	Surnames: []string{
		"王", "李", "张", "刘", "陈", "杨", "黄", "赵", "吴", "周",
		"徐", "孙", "马", "朱", "胡", "郭", "何", "高", "林", "罗",
		"郑", "梁", "谢", "宋", "唐", "许", "韩", "冯", "邓", "曹",
	},
	Male: []string{
		"伟", "强", "磊", "洋", "勇", "军", "杰", "涛", "超", "明",
		"刚", "平", "辉", "鹏", "华", "飞", "鑫", "波", "斌", "宇",
		"浩然", "子轩", "宇航", "博文", "俊杰",
	},
	Female: []string{
		"芳", "娜", "敏", "静", "丽", "艳", "娟", "霞", "燕", "玲",
		"婷", "雪", "琳", "洁", "倩", "颖", "慧", "欣", "瑶", "佳",
		"梓涵", "雨欣", "诗琪", "思雨", "可馨",
	},
}
