package locator

import "strings"

// provinceFull maps the short province names some upstreams return to the
// complete administrative names, covering all 34 province-level divisions.
var provinceFull = map[string]string{
	"北京":  "北京市",
	"天津":  "天津市",
	"上海":  "上海市",
	"重庆":  "重庆市",
	"河北":  "河北省",
	"山西":  "山西省",
	"辽宁":  "辽宁省",
	"吉林":  "吉林省",
	"黑龙江": "黑龙江省",
	"江苏":  "江苏省",
	"浙江":  "浙江省",
	"安徽":  "安徽省",
	"福建":  "福建省",
	"江西":  "江西省",
	"山东":  "山东省",
	"河南":  "河南省",
	"湖北":  "湖北省",
	"湖南":  "湖南省",
	"广东":  "广东省",
	"海南":  "海南省",
	"四川":  "四川省",
	"贵州":  "贵州省",
	"云南":  "云南省",
	"陕西":  "陕西省",
	"甘肃":  "甘肃省",
	"青海":  "青海省",
	"台湾":  "台湾省",
	"内蒙古": "内蒙古自治区",
	"广西":  "广西壮族自治区",
	"西藏":  "西藏自治区",
	"宁夏":  "宁夏回族自治区",
	"新疆":  "新疆维吾尔自治区",
	"香港":  "香港特别行政区",
	"澳门":  "澳门特别行政区",
}

var provinceComplete = make(map[string]bool, len(provinceFull))

func init() {
	for _, full := range provinceFull {
		provinceComplete[full] = true
	}
}

// CompleteProvince substitutes the full administrative name for a
// recognized short or truncated form. Complete names pass through
// untouched, so the function is idempotent; unknown names are returned
// as-is.
func CompleteProvince(name string) string {
	if name == "" || provinceComplete[name] {
		return name
	}

	if full, ok := provinceFull[name]; ok {
		return full
	}

	// Some upstreams chop names mid-word, e.g. "广西壮族自治" from address
	// splitting. A truncated form that unambiguously prefixes one full
	// name is restored to it.
	var match string

	for _, full := range provinceFull {
		if strings.HasPrefix(full, name) {
			if match != "" {
				return name
			}

			match = full
		}
	}

	if match != "" {
		return match
	}

	return name
}
