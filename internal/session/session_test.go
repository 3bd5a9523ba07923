package session

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Session", func() {
	var (
		storage *MemoryStorage
		sess    Session
		err     error
	)

	BeforeEach(func() {
		storage = NewMemoryStorage()
	})

	JustBeforeEach(func() {
		sess, err = Read(storage)
	})

	When("an employee is stored", func() {
		BeforeEach(func() {
			storage.SetItem(UserKey, `{"type":"Employee","email":"a@a"}`)
		})

		It("reads the user", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Email).To(Equal("a@a"))
			Expect(sess.IsEmployee()).To(BeTrue())
		})
	})

	When("the user was written by Write", func() {
		BeforeEach(func() {
			Expect(Write(storage, Session{Type: TypeAdmin, Email: "admin@test.tld"})).To(Succeed())
		})

		It("round trips", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(sess).To(Equal(Session{Type: TypeAdmin, Email: "admin@test.tld"}))
			Expect(sess.IsEmployee()).To(BeFalse())
		})
	})

	When("nothing is stored", func() {
		It("returns ErrNoUser", func() {
			Expect(err).To(MatchError(ErrNoUser))
		})
	})

	When("the stored value is not JSON", func() {
		BeforeEach(func() {
			storage.SetItem(UserKey, "not json")
		})

		It("returns a decoding error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("decoding user"))
		})
	})
})
