package locator

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pospos369/ip-location-api/upstream"
)

var _ = Describe("Province completion", func() {
	It("Should expand short autonomous region names", func() {
		Expect(CompleteProvince("广西")).To(Equal("广西壮族自治区"))
		Expect(CompleteProvince("新疆")).To(Equal("新疆维吾尔自治区"))
		Expect(CompleteProvince("内蒙古")).To(Equal("内蒙古自治区"))
	})

	It("Should expand municipality names", func() {
		Expect(CompleteProvince("北京")).To(Equal("北京市"))
		Expect(CompleteProvince("重庆")).To(Equal("重庆市"))
	})

	It("Should expand plain province names", func() {
		Expect(CompleteProvince("广东")).To(Equal("广东省"))
		Expect(CompleteProvince("黑龙江")).To(Equal("黑龙江省"))
	})

	It("Should be idempotent on complete names", func() {
		Expect(CompleteProvince("广西壮族自治区")).To(Equal("广西壮族自治区"))
		Expect(CompleteProvince("北京市")).To(Equal("北京市"))
		Expect(CompleteProvince(CompleteProvince("广西"))).To(Equal("广西壮族自治区"))
	})

	It("Should restore names truncated mid-word", func() {
		Expect(CompleteProvince("广西壮族自治")).To(Equal("广西壮族自治区"))
		Expect(CompleteProvince("新疆维吾尔")).To(Equal("新疆维吾尔自治区"))
	})

	It("Should not guess when a truncation is ambiguous", func() {
		Expect(CompleteProvince("广")).To(Equal("广"))
	})

	It("Should leave unknown names untouched", func() {
		Expect(CompleteProvince("Atlantis")).To(Equal("Atlantis"))
		Expect(CompleteProvince("")).To(Equal(""))
	})
})

var _ = Describe("Normalizer", func() {
	It("Should normalize a full answer and keep the source id", func() {
		location, err := normalizeLocation(&upstream.Location{
			Province:  "广东省",
			City:      "惠州市",
			District:  "惠城区",
			Adcode:    "441302",
			Longitude: "114.41",
			Latitude:  "23.11",
		}, "baidu-map")

		Expect(err).To(BeNil())
		Expect(location.Province).To(Equal("广东省"))
		Expect(location.City).To(Equal("惠州市"))
		Expect(location.CountryCode).To(Equal("CN"))
		Expect(location.Longitude).To(Equal("114.41"))
		Expect(location.Source).To(Equal("baidu-map"))
	})

	It("Should complete a short province name before validating", func() {
		location, err := normalizeLocation(&upstream.Location{
			Province: "广西",
			City:     "南宁",
		}, "baidu-opendata")

		Expect(err).To(BeNil())
		Expect(location.Province).To(Equal("广西壮族自治区"))
	})

	It("Should reject an answer with an empty city as incomplete", func() {
		location, err := normalizeLocation(&upstream.Location{
			Province: "广东省",
		}, "amap")

		Expect(location).To(BeNil())
		Expect(err).To(HaveOccurred())
		Expect(upstream.ReasonOf(err)).To(Equal(upstream.ReasonIncompleteLocation))
	})

	It("Should reject an answer with an empty province as incomplete", func() {
		_, err := normalizeLocation(&upstream.Location{
			City: "深圳市",
		}, "amap")

		Expect(err).To(HaveOccurred())
		Expect(upstream.ReasonOf(err)).To(Equal(upstream.ReasonIncompleteLocation))
	})

	It("Should treat whitespace-only fields as empty", func() {
		_, err := normalizeLocation(&upstream.Location{
			Province: "  ",
			City:     "深圳市",
		}, "pconline")

		Expect(err).To(HaveOccurred())
		Expect(upstream.ReasonOf(err)).To(Equal(upstream.ReasonIncompleteLocation))
	})

	It("Should synthesize the address when the source had none", func() {
		location, err := normalizeLocation(&upstream.Location{
			Province: "广东省",
			City:     "惠州市",
		}, "pconline")

		Expect(err).To(BeNil())
		Expect(location.Address).To(Equal("广东省惠州市"))
	})
})
